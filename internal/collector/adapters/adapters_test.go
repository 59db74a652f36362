package adapters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/speedwagon-io/sensord/internal/bme280"
	"github.com/speedwagon-io/sensord/internal/lib/logger/sl"
	"github.com/speedwagon-io/sensord/internal/model"
	"github.com/speedwagon-io/sensord/internal/w1"
)

func writeDevice(t *testing.T, base, name, report string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if report == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "w1_slave"), []byte(report), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
}

func TestW1AdapterCollect(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "28-0001", "aa : crc=3a YES\naa t=22625\n")
	writeDevice(t, base, "28-0002", "aa : crc=3a NO\naa t=22625\n")
	writeDevice(t, base, "10-0003", "aa : crc=3a YES\naa t=1\n")

	samples, err := NewW1Adapter(sl.Discard(), base).Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Source < samples[j].Source })

	if samples[0].Err != nil || samples[0].Reading != model.NewThermalProbe("28-0001", 22625) {
		t.Fatalf("unexpected first sample %+v", samples[0])
	}
	if !errors.Is(samples[1].Err, w1.ErrChecksum) || samples[1].Reading != nil {
		t.Fatalf("expected checksum failure for 28-0002, got %+v", samples[1])
	}
}

func TestW1AdapterMissingBus(t *testing.T) {
	samples, err := NewW1Adapter(sl.Discard(), filepath.Join(t.TempDir(), "no-bus")).Collect(context.Background())
	if err != nil || len(samples) != 0 {
		t.Fatalf("expected empty result, got %v, %v", samples, err)
	}
}

func TestW1AdapterDefaultPath(t *testing.T) {
	a := NewW1Adapter(sl.Discard(), "")
	if a.basePath != w1.DefaultBasePath {
		t.Fatalf("unexpected default path %s", a.basePath)
	}
}

type fakeMeasurer struct {
	m      bme280.Measurement
	err    error
	closed bool
}

func (f *fakeMeasurer) Measure() (bme280.Measurement, error) { return f.m, f.err }

func (f *fakeMeasurer) Close() error {
	f.closed = true
	return nil
}

func TestBME280AdapterCollect(t *testing.T) {
	sensor := &fakeMeasurer{m: bme280.Measurement{Temperature: 22.625, Pressure: 101325, Humidity: 35}}
	a := NewBME280Adapter(sl.Discard(), sensor)

	samples, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Reading.String() != "BME280: 22.62 °C, 101325.00 Pa, 35.00%" {
		t.Fatalf("unexpected reading %v", samples[0].Reading)
	}

	if err := a.Close(); err != nil || !sensor.closed {
		t.Fatalf("close should release the sensor: %v", err)
	}
}

func TestBME280AdapterMeasureError(t *testing.T) {
	a := NewBME280Adapter(sl.Discard(), &fakeMeasurer{err: errors.New("i2c nack")})

	samples, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("measure errors belong in the sample, got %v", err)
	}
	if len(samples) != 1 || samples[0].Err == nil || samples[0].Source != "BME280" {
		t.Fatalf("unexpected samples %+v", samples)
	}
}
