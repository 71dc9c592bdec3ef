package model

import (
	"math"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{-0.5, "-0.5"},
		{1e21, "1e+21"},
		{math.Copysign(0, -1), "-0.0"},
		{math.Inf(1), ".inf"},
		{math.Inf(-1), "-.inf"},
		{math.NaN(), ".nan"},
	}

	for _, tt := range tests {
		got := formatFloat(tt.in)
		if got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
		back, err := parseFloat(got)
		if err != nil {
			t.Errorf("parseFloat(%q) failed: %v", got, err)
			continue
		}
		if math.IsNaN(tt.in) {
			if !math.IsNaN(back) {
				t.Errorf("expected NaN back, got %v", back)
			}
		} else if math.Float64bits(back) != math.Float64bits(tt.in) {
			t.Errorf("round trip of %v gave %v", tt.in, back)
		}
	}
}

func TestParseFloat_Integers(t *testing.T) {
	v, err := parseFloat("7")
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %v (%v)", v, err)
	}
	if _, err := parseFloat("seven"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}
