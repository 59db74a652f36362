package w1

import (
	"errors"
	"fmt"
)

// ErrChecksum is returned when a report lacks the YES integrity marker.
var ErrChecksum = errors.New("CRC check failed")

var errNoTemperature = errors.New("failed to find temperature")

// DiscoveryError reports a device directory that exists but cannot be listed.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: failed to list %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ParseError reports a missing or malformed t= field in a report that
// passed the integrity gate.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse: invalid temperature %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
