package collector

import (
	"context"
	"errors"

	"github.com/speedwagon-io/sensord/internal/model"
	"github.com/speedwagon-io/sensord/internal/w1"
)

// Sample is the outcome of reading one device: either a Reading or an Err.
type Sample struct {
	Source  string
	Reading model.Reading
	Err     error
}

// Collector reads every device of one sensor family. A non-nil error means
// the family could not be enumerated at all; per-device failures are
// reported in Sample.Err.
type Collector interface {
	Collect(ctx context.Context) ([]Sample, error)
	Name() string
	Close() error
}

// Stage classifies an acquisition error for logs and metrics.
func Stage(err error) string {
	var derr *w1.DiscoveryError
	var perr *w1.ParseError
	switch {
	case errors.As(err, &derr):
		return "discovery"
	case errors.Is(err, w1.ErrChecksum):
		return "checksum"
	case errors.As(err, &perr):
		return "parse"
	default:
		return "read"
	}
}
