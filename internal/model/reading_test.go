package model

import "testing"

func TestThermalProbeTemperature(t *testing.T) {
	cases := []struct {
		raw  int32
		want float32
	}{
		{22625, 22.625},
		{-22625, -22.625},
		{0, 0},
		{85000, 85},
	}
	for _, tc := range cases {
		r := NewThermalProbe("28-000000000000", tc.raw)
		if got := r.Temperature(); got != tc.want {
			t.Fatalf("raw %d: expected %v, got %v", tc.raw, tc.want, got)
		}
		if r.RawMilliunits() != tc.raw {
			t.Fatalf("raw value changed: %d", r.RawMilliunits())
		}
	}
}

func TestThermalProbeString(t *testing.T) {
	cases := map[int32]string{
		22625:  "28-000000000000: 22.625 °C",
		-22625: "28-000000000000: -22.625 °C",
		23000:  "28-000000000000: 23 °C",
	}
	for raw, want := range cases {
		if got := NewThermalProbe("28-000000000000", raw).String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestEnvironmentalFieldsAndString(t *testing.T) {
	r := NewEnvironmental(22.625, 101325.0, 35.0)

	if r.Temperature() != 22.625 || r.Pressure() != 101325.0 || r.Humidity() != 35.0 {
		t.Fatalf("fields not stored verbatim: %+v", r)
	}
	if r.Family() != FamilyBME280 {
		t.Fatalf("unexpected family %s", r.Family())
	}

	want := "BME280: 22.62 °C, 101325.00 Pa, 35.00%"
	if got := r.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestReadingEquality(t *testing.T) {
	var a, b, c Reading = NewThermalProbe("28-0001", 22625), NewThermalProbe("28-0001", 22625), NewThermalProbe("28-0001", 23000)
	if a != b {
		t.Fatal("identical thermal readings should be equal")
	}
	if a == c {
		t.Fatal("different raw values should not be equal")
	}

	var env1, env2 Reading = NewEnvironmental(1, 2, 3), NewEnvironmental(1, 2, 3)
	if env1 != env2 {
		t.Fatal("identical environmental readings should be equal")
	}
	if NewEnvironmental(1, 2, 3) == NewEnvironmental(1, 2, 4) {
		t.Fatal("humidity must take part in equality")
	}

	// 22.625 °C both ways, still different variants.
	var thermal Reading = NewThermalProbe("BME280", 22625)
	var env Reading = NewEnvironmental(22.625, 0, 0)
	if thermal == env {
		t.Fatal("cross-variant readings must never be equal")
	}
}
