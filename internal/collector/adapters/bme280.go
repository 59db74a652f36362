package adapters

import (
	"context"
	"log/slog"

	"github.com/speedwagon-io/sensord/internal/bme280"
	"github.com/speedwagon-io/sensord/internal/collector"
	"github.com/speedwagon-io/sensord/internal/model"
)

// BME280Adapter takes one measurement per cycle from a single sensor.
type BME280Adapter struct {
	log    *slog.Logger
	sensor bme280.Measurer
}

func NewBME280Adapter(log *slog.Logger, sensor bme280.Measurer) *BME280Adapter {
	return &BME280Adapter{
		log:    log,
		sensor: sensor,
	}
}

func (a *BME280Adapter) Name() string {
	return "bme280"
}

func (a *BME280Adapter) Close() error {
	return a.sensor.Close()
}

func (a *BME280Adapter) Collect(ctx context.Context) ([]collector.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := string(model.FamilyBME280)

	m, err := a.sensor.Measure()
	if err != nil {
		return []collector.Sample{{Source: source, Err: err}}, nil
	}

	a.log.Debug("bme280 measured",
		slog.Float64("temperature", float64(m.Temperature)),
		slog.Float64("pressure", float64(m.Pressure)),
		slog.Float64("humidity", float64(m.Humidity)),
	)

	return []collector.Sample{{Source: source, Reading: m.Reading()}}, nil
}
