package stats

import (
	"fmt"
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// RoundMinutes rounds a mean to whole minutes. Halves go to the even
// neighbour, so 150.5 prints as 150 and 151.5 as 152.
func RoundMinutes(v float64) int {
	return int(math.RoundToEven(v))
}

// FormatMinutes renders minutes as "Xmin <-> Yhr Zmin".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dmin <-> %dhr %dmin", minutes, minutes/60, minutes%60)
}

// FormatHours renders minutes as fractional hours, e.g. "4.5h".
func FormatHours(minutes float64) string {
	return fmt.Sprintf("%.1fh", minutes/60)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minutesToHours(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v) / 60
	}
	return out
}
