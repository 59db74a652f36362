package commit

import (
	"errors"
	"fmt"
)

// Stage names where a commit round trip failed.
type Stage string

const (
	StageEncode    Stage = "encode"
	StageRequest   Stage = "request"
	StageTransport Stage = "transport"
	StageStatus    Stage = "status"
	StageDecode    Stage = "decode"
	StageRecordID  Stage = "record_id"
)

var (
	ErrMissingRecordID  = errors.New("response has no string record_id")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// CommitError wraps any failure of the store round trip.
type CommitError struct {
	Stage Stage
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit: %s: %v", e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func fail(stage Stage, err error) error {
	return &CommitError{Stage: stage, Err: err}
}
