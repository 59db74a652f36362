package adapters

import (
	"context"
	"log/slog"

	"github.com/speedwagon-io/sensord/internal/collector"
	"github.com/speedwagon-io/sensord/internal/w1"
)

// W1Adapter collects DS18B20 thermometers from a sysfs-style directory.
// Devices are discovered again on every call.
type W1Adapter struct {
	log      *slog.Logger
	basePath string
}

func NewW1Adapter(log *slog.Logger, basePath string) *W1Adapter {
	if basePath == "" {
		basePath = w1.DefaultBasePath
	}
	return &W1Adapter{
		log:      log,
		basePath: basePath,
	}
}

func (a *W1Adapter) Name() string {
	return "w1"
}

func (a *W1Adapter) Close() error {
	return nil
}

func (a *W1Adapter) Collect(ctx context.Context) ([]collector.Sample, error) {
	devices, err := w1.Discover(a.basePath)
	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		a.log.Debug("no 1-Wire thermometers found", slog.String("base_path", a.basePath))
		return nil, nil
	}

	samples := make([]collector.Sample, 0, len(devices))
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return samples, err
		}

		reading, err := device.Read()
		if err != nil {
			samples = append(samples, collector.Sample{Source: device.Name(), Err: err})
			continue
		}

		samples = append(samples, collector.Sample{Source: device.Name(), Reading: reading})
	}

	return samples, nil
}
