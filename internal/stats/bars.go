package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

var barEighths = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}

const barFull = '█'

// RenderBars draws a horizontal bar chart scaled to the largest value.
// format renders the value column; nil prints one decimal.
func RenderBars(w io.Writer, title string, bars []Bar, width int, format func(float64) string, forceColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}
	if width <= 0 {
		width = terminalWidth()
	}

	labelWidth, valueWidth := 0, 0
	values := make([]string, len(bars))
	peak := 0.0
	for i, b := range bars {
		values[i] = format(b.Value)
		labelWidth = max(labelWidth, displayWidth(b.Label))
		valueWidth = max(valueWidth, displayWidth(values[i]))
		peak = max(peak, b.Value)
	}
	barWidth := max(width-labelWidth-valueWidth-1-displayWidth(axisSeparator), minPlotWidth)

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for i, b := range bars {
		cells := 0.0
		if peak > 0 {
			cells = b.Value / peak * float64(barWidth)
		}
		bar := barString(cells)
		if useColor && bar != "" {
			bar = colorPalette[0].code + bar + colorReset
		}
		line := padCell(b.Label, labelWidth, false) + " " + padCell(values[i], valueWidth, true) + axisSeparator + bar
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// barString renders a length in cells using eighth-block precision.
func barString(cells float64) string {
	if cells <= 0 {
		return ""
	}
	eighths := int(math.Round(cells * 8))
	full, rest := eighths/8, eighths%8
	var b strings.Builder
	b.WriteString(strings.Repeat(string(barFull), full))
	if rest > 0 {
		b.WriteRune(barEighths[rest])
	}
	return b.String()
}
