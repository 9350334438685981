package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"10 m/s to mph", 10.0, MPH, 22.3694},
		{"10 m/s to kmph", 10.0, KMPH, 36.0},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"10 m/s to mps", 10.0, MPS, 10.0},
		{"unknown units default to mps", 10.0, "unknown", 10.0},
		{"walking speed 1.4 m/s to mph", 1.4, MPH, 3.13172},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestToMPS(t *testing.T) {
	tests := []struct {
		unit    string
		speed   float64
		want    float64
		wantErr bool
	}{
		{MPS, 2, 2, false},
		{"", 2, 2, false},
		{KPH, 36, 10, false},
		{KMPH, 7.2, 2, false},
		{MPH, 10, 4.4704, false},
		{"knots", 1, 0, true},
	}
	for _, tt := range tests {
		got, err := ToMPS(tt.speed, tt.unit)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToMPS(%v, %q) expected error", tt.speed, tt.unit)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ToMPS(%v, %q) unexpected error: %v", tt.speed, tt.unit, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToMPS(%v, %q) = %v, want %v", tt.speed, tt.unit, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, u := range ValidUnits {
		mps, err := ToMPS(ConvertSpeed(3.5, u), u)
		if err != nil {
			t.Fatalf("unit %s: %v", u, err)
		}
		if math.Abs(mps-3.5) > 1e-9 {
			t.Errorf("unit %s round trip = %v, want 3.5", u, mps)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false", u)
		}
	}
	if IsValid("furlongs") {
		t.Error("IsValid(furlongs) = true")
	}
	if GetValidUnitsString() != "mps, mph, kmph, kph" {
		t.Errorf("GetValidUnitsString() = %q", GetValidUnitsString())
	}
}
