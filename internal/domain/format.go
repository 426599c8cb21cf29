package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Text renders v with the measure's precision and unit: "71명", "2.5m",
// and for the hm format "1시간 5분".
func (m Measure) Text(v float64) string {
	if m.Format == FormatHM {
		return formatHM(int(math.Round(v)))
	}
	return FormatNumber(v, m.Decimals) + m.Unit
}

// FormatNumber prints v with a fixed number of decimals
func FormatNumber(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatHM(minutes int) string {
	h, min := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d분", min)
	case min == 0:
		return fmt.Sprintf("%d시간", h)
	default:
		return fmt.Sprintf("%d시간 %d분", h, min)
	}
}

// Quantize rounds v to the measure's precision
func (m Measure) Quantize(v float64) float64 {
	s := m.Scale()
	return math.Round(v*s) / s
}
