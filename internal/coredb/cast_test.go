package coredb

import (
	"math"
	"testing"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantNaN bool
		wantErr bool
	}{
		{"plain number", "1.5", 1.5, false, false},
		{"integer", "42", 42, false, false},
		{"negative", "-0.002", -0.002, false, false},
		{"scientific", "1e-3", 0.001, false, false},
		{"empty is NaN", "", 0, true, false},
		{"whitespace only is NaN", "   ", 0, true, false},
		{"NAN spelling", "NAN", 0, true, false},
		{"lowercase nan", "nan", 0, true, false},
		{"Inf spelling", "Inf", math.Inf(1), false, false},
		{"non-numeric fails", "abc", 0, false, true},
		{"trailing garbage fails", "1.5x", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFloat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFloat(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFloat(%q) error = %v", tt.input, err)
			}
			if tt.wantNaN {
				if !math.IsNaN(got) {
					t.Errorf("ParseFloat(%q) = %v, want NaN", tt.input, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
