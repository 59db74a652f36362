package model

import (
	"fmt"
	"strconv"
)

// Family names a sensor family. It doubles as the JSON type tag of a Reading.
type Family string

const (
	FamilyDS18B20 Family = "DS18B20"
	FamilyBME280  Family = "BME280"
)

// Reading is the output of one sensor measurement. The set of
// implementations is closed: ThermalProbe and Environmental.
// Readings are comparable with ==; values of different variants are never equal.
type Reading interface {
	fmt.Stringer
	Family() Family
	// Temperature in degrees Celsius.
	Temperature() float32

	sealed()
}

// ThermalProbe is a 1-Wire digital thermometer reading in milli-degrees Celsius.
type ThermalProbe struct {
	deviceName string
	raw        int32
}

func NewThermalProbe(deviceName string, rawMilliunits int32) ThermalProbe {
	return ThermalProbe{deviceName: deviceName, raw: rawMilliunits}
}

func (r ThermalProbe) DeviceName() string { return r.deviceName }

func (r ThermalProbe) RawMilliunits() int32 { return r.raw }

func (r ThermalProbe) Family() Family { return FamilyDS18B20 }

func (r ThermalProbe) Temperature() float32 {
	return float32(r.raw) / 1000.0
}

func (r ThermalProbe) String() string {
	t := strconv.FormatFloat(float64(r.Temperature()), 'f', -1, 32)
	return fmt.Sprintf("%s: %s °C", r.deviceName, t)
}

func (ThermalProbe) sealed() {}

// Environmental is a combined temperature (°C), pressure (Pa) and relative
// humidity (%) reading. Values are stored as measured.
type Environmental struct {
	temperature float32
	pressure    float32
	humidity    float32
}

func NewEnvironmental(temperature, pressure, humidity float32) Environmental {
	return Environmental{temperature: temperature, pressure: pressure, humidity: humidity}
}

func (r Environmental) Family() Family { return FamilyBME280 }

func (r Environmental) Temperature() float32 { return r.temperature }

func (r Environmental) Pressure() float32 { return r.pressure }

func (r Environmental) Humidity() float32 { return r.humidity }

func (r Environmental) String() string {
	return fmt.Sprintf("BME280: %.2f °C, %.2f Pa, %.2f%%", r.temperature, r.pressure, r.humidity)
}

func (Environmental) sealed() {}
