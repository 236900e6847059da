package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// PlotSeries renders series on one shared vertical scale using braille dots.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor is PlotSeries with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmptySeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	var all []float64
	scaled := make([]Series, len(series))
	for i, s := range series {
		scaled[i] = Series{Name: s.Name, Values: resampleSeries(s.Values, width)}
		all = append(all, scaled[i].Values...)
	}
	lo, hi := seriesMinMax(all)
	lo = min(lo, 0)
	if math.Abs(hi-lo) < 1e-9 {
		hi = lo + 1
	}

	layers := make([][][]uint8, len(scaled))
	for si, s := range scaled {
		cells := makeCells(height, width)
		prevX, prevY := -1, -1
		for x, v := range s.Values {
			px, py := x*2, valueToRow(v, lo, hi, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					setBrailleDot(cells, dx, dy)
				})
			} else {
				setBrailleDot(cells, px, py)
			}
			prevX, prevY = px, py
		}
		layers[si] = cells
	}

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	labels := axisLabels(lo, hi, height)
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", axisLabelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, layer := composeCell(layers, x, y)
			ch := brailleFromMask(mask)
			if useColor && layer >= 0 {
				row.WriteString(colorPalette[layer%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(scaled, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisLabelWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func nonEmptySeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// axisLabels puts the scale at the top, middle and bottom rows.
func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.1f", hi)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.1f", (lo+hi)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.1f", lo)
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges all layers; the first non-empty layer picks the color.
func composeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	first := -1
	for i, cells := range layers {
		if y >= len(cells) || x >= len(cells[y]) {
			continue
		}
		if cells[y][x] == 0 {
			continue
		}
		if first == -1 {
			first = i
		}
		mask |= cells[y][x]
	}
	return mask, first
}

// resampleSeries averages buckets when shrinking and interpolates when stretching.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(pos)
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func seriesMinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func valueToRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(row, rows-1))
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s", marker, s.Name)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line from (x0,y0) to (x1,y1).
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// braille cell layout: two columns, four rows per character.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cy, cx := y/4, x/2
	if cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDots[x%2][y%4]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
