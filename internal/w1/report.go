package w1

import (
	"strconv"
	"strings"
)

const (
	crcMarker         = "YES"
	temperatureMarker = "t="
)

// RawSample is one temperature value in milli-degrees Celsius.
type RawSample struct {
	DeviceName    string
	RawMilliunits int32
}

// ParseReport extracts the milli-degree value from a w1_slave report:
//
//	6a 01 4b 46 7f ff 0c 10 3a : crc=3a YES
//	6a 01 4b 46 7f ff 0c 10 3a t=22625
//
// The YES marker is checked before anything else; without it the value is
// never parsed and ErrChecksum is returned.
func ParseReport(report string) (int32, error) {
	if !strings.Contains(report, crcMarker) {
		return 0, ErrChecksum
	}

	parts := strings.Split(report, temperatureMarker)
	if len(parts) < 2 {
		return 0, &ParseError{Err: errNoTemperature}
	}

	field := strings.TrimSpace(parts[1])
	value, err := strconv.ParseInt(field, 10, 32)
	if err != nil {
		return 0, &ParseError{Input: field, Err: err}
	}

	return int32(value), nil
}

// ParseSample is ParseReport tagged with the originating device.
func ParseSample(deviceName, report string) (RawSample, error) {
	raw, err := ParseReport(report)
	if err != nil {
		return RawSample{}, err
	}
	return RawSample{DeviceName: deviceName, RawMilliunits: raw}, nil
}
