package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasure_Text(t *testing.T) {
	people := Measure{Unit: "명", Format: FormatPlain}
	meters := Measure{Unit: "m", Decimals: 1, Format: FormatPlain}
	minutes := Measure{Unit: "분", Format: FormatHM}

	tests := []struct {
		m    Measure
		v    float64
		want string
	}{
		{people, 71, "71명"},
		{meters, 2.5, "2.5m"},
		{meters, 3, "3.0m"},
		{minutes, 45, "45분"},
		{minutes, 60, "1시간"},
		{minutes, 65, "1시간 5분"},
		{minutes, 120, "2시간"},
		{minutes, 200, "3시간 20분"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.m.Text(tt.v))
	}
}

func TestMeasure_Quantize(t *testing.T) {
	assert.Equal(t, 2.5, Measure{Decimals: 1}.Quantize(2.54))
	assert.Equal(t, 3.0, Measure{Decimals: 0}.Quantize(2.6))
	assert.Equal(t, 0.72, Measure{Decimals: 2}.Quantize(0.7249))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1.50", FormatNumber(1.5, 2))
	assert.Equal(t, "12", FormatNumber(12, 0))
}
