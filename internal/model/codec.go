package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownFamily = errors.New("unknown reading type")

type readingJSON struct {
	Type        Family   `json:"type"`
	DeviceName  string   `json:"device_name,omitempty"`
	RawReading  *int32   `json:"raw_reading,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	Pressure    *float32 `json:"pressure,omitempty"`
	Humidity    *float32 `json:"humidity,omitempty"`
}

type recordJSON struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Reading   json.RawMessage `json:"reading"`
}

func MarshalReading(r Reading) ([]byte, error) {
	var out readingJSON
	switch v := r.(type) {
	case ThermalProbe:
		raw := v.raw
		out = readingJSON{Type: FamilyDS18B20, DeviceName: v.deviceName, RawReading: &raw}
	case Environmental:
		t, p, h := v.temperature, v.pressure, v.humidity
		out = readingJSON{Type: FamilyBME280, Temperature: &t, Pressure: &p, Humidity: &h}
	case nil:
		return nil, errors.New("nil reading")
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFamily, r)
	}
	return json.Marshal(out)
}

func UnmarshalReading(data []byte) (Reading, error) {
	var in readingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}

	switch in.Type {
	case FamilyDS18B20:
		if in.RawReading == nil {
			return nil, errors.New("DS18B20 reading without raw_reading")
		}
		return NewThermalProbe(in.DeviceName, *in.RawReading), nil
	case FamilyBME280:
		if in.Temperature == nil || in.Pressure == nil || in.Humidity == nil {
			return nil, errors.New("BME280 reading missing a field")
		}
		return NewEnvironmental(*in.Temperature, *in.Pressure, *in.Humidity), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, in.Type)
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	reading, err := MarshalReading(r.reading)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordJSON{
		ID:        r.id.String(),
		Timestamp: r.timestamp.Format(time.RFC3339Nano),
		Reading:   reading,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	id, err := uuid.Parse(in.ID)
	if err != nil {
		return fmt.Errorf("failed to parse record id: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, in.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to parse record timestamp: %w", err)
	}

	reading, err := UnmarshalReading(in.Reading)
	if err != nil {
		return err
	}

	*r = NewRecord(id, ts, reading)
	return nil
}

func (r Record) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func RecordFromJSON(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}
