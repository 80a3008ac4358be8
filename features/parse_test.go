package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"125.000 €", 125000, false},
		{"€ 98.500,50", 98500.50, false},
		{"1.250.000 EUR", 1250000, false},
		{" 75 000 ", 75000, false},
		{"$300", 300, false},
		{"", 0, true},
		{"na upit", 0, true},
		{"€", 0, true},
		{"Inf", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"45", 45, false},
		{"45,5", 45.5, false},
		{"62.3 m²", 62.3, false},
		{"38m2", 38, false},
		{"", 0, true},
		{"NaN", 0, true},
		{"četrdeset", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseArea(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestInputError_IsMalformed(t *testing.T) {
	var err error = &InputError{Field: "Area_m2", Value: "x", Reason: "not a number"}
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.Contains(t, err.Error(), "Area_m2")
}
