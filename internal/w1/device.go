package w1

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/speedwagon-io/sensord/internal/model"
)

const (
	// DefaultBasePath is where the Linux w1 bus driver exposes slaves.
	DefaultBasePath = "/sys/bus/w1/devices"

	// ThermalFamilyPrefix is the family code of DS18B20 thermometers.
	ThermalFamilyPrefix = "28-"

	reportFile = "w1_slave"
)

// Device is a discovered DS18B20. Its name is the last path element.
type Device struct {
	path string
}

func NewDevice(path string) Device {
	return Device{path: path}
}

func (d Device) Path() string { return d.path }

func (d Device) Name() string { return filepath.Base(d.path) }

// Discover lists thermometers directly under basePath. A missing basePath
// yields no devices and no error. Order follows the directory listing.
func Discover(basePath string) ([]Device, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &DiscoveryError{Path: basePath, Err: err}
	}

	var devices []Device
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ThermalFamilyPrefix) {
			devices = append(devices, NewDevice(filepath.Join(basePath, entry.Name())))
		}
	}
	return devices, nil
}

// ReadSample reads and parses the device's w1_slave report.
func (d Device) ReadSample() (RawSample, error) {
	content, err := os.ReadFile(filepath.Join(d.path, reportFile))
	if err != nil {
		return RawSample{}, fmt.Errorf("failed to read %s report: %w", d.Name(), err)
	}
	return ParseSample(d.Name(), string(content))
}

func (d Device) Read() (model.ThermalProbe, error) {
	sample, err := d.ReadSample()
	if err != nil {
		return model.ThermalProbe{}, err
	}
	return model.NewThermalProbe(sample.DeviceName, sample.RawMilliunits), nil
}
