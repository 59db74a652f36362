// Package bme280 exposes the combined temperature/pressure/humidity sensor
// as a capability that yields one Measurement per call.
package bme280

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/speedwagon-io/sensord/internal/model"
)

// DefaultAddress is the secondary BME280 address (SDO pulled high).
const DefaultAddress = 0x77

// Measurement holds temperature in °C, pressure in Pa and relative humidity in %.
type Measurement struct {
	Temperature float32
	Pressure    float32
	Humidity    float32
}

func (m Measurement) Reading() model.Environmental {
	return model.NewEnvironmental(m.Temperature, m.Pressure, m.Humidity)
}

type Measurer interface {
	Measure() (Measurement, error)
	Close() error
}

// I2CSensor drives a BME280 through periph.io.
type I2CSensor struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// OpenI2C initializes the host drivers, opens bus (e.g. "/dev/i2c-1" or "1")
// and runs the device initialization sequence at addr.
func OpenI2C(bus string, addr uint16) (*I2CSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init host drivers: %w", err)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", bus, err)
	}

	dev, err := bmxx80.NewI2C(b, addr, &bmxx80.DefaultOpts)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to init bme280 at 0x%02x: %w", addr, err)
	}

	return &I2CSensor{bus: b, dev: dev}, nil
}

func (s *I2CSensor) Measure() (Measurement, error) {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return Measurement{}, fmt.Errorf("failed to sense: %w", err)
	}
	return FromEnv(env), nil
}

func (s *I2CSensor) Close() error {
	haltErr := s.dev.Halt()
	if err := s.bus.Close(); err != nil {
		return fmt.Errorf("failed to close i2c bus: %w", err)
	}
	return haltErr
}

// FromEnv converts periph's fixed-point units into the canonical floats.
func FromEnv(env physic.Env) Measurement {
	return Measurement{
		Temperature: float32(env.Temperature.Celsius()),
		Pressure:    float32(float64(env.Pressure) / float64(physic.Pascal)),
		Humidity:    float32(float64(env.Humidity) / float64(physic.PercentRH)),
	}
}
