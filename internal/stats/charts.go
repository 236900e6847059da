package stats

import (
	"cmp"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/worklog/internal/model"
)

// DefaultTrendWindow is the moving-average window of the weekly trend.
const DefaultTrendWindow = 4

// ChartOptions sizes rendered charts. Zero values pick terminal defaults.
type ChartOptions struct {
	Width       int
	Height      int
	Color       bool
	TrendWindow int
}

// Chart is one titled bar chart derived from a Result.
type Chart struct {
	Title  string
	Bars   []Bar
	Format func(float64) string
}

func weekdayAt(i int) model.Weekday {
	return model.Weekday(i + 1)
}

func hoursFormat(v float64) string {
	return FormatHours(v)
}

func qualityFormat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// minuteBars converts a minutes map into bars in ascending key order.
func minuteBars[K cmp.Ordered](m OrderedMap[K, int], label func(K) string) []Bar {
	bars := make([]Bar, 0, len(m))
	for k, v := range m.All() {
		bars = append(bars, Bar{Label: label(k), Value: float64(v)})
	}
	return bars
}

// weekdayBars lays a Monday-first array out as seven bars.
func weekdayBars(values [7]float64) []Bar {
	bars := make([]Bar, len(values))
	for i, v := range values {
		bars[i] = Bar{Label: weekdayAt(i).String(), Value: v}
	}
	return bars
}

// Charts returns the bar charts of a Result: days, weeks, subjects,
// weekday totals, weekday averages (plain and filtered) and weekday quality.
func Charts(res Result) []Chart {
	identity := func(s string) string { return s }
	weekLabel := func(w int) string { return "Week " + strconv.Itoa(w) }
	return []Chart{
		{Title: "Time per day", Bars: minuteBars(res.DayTotals, identity), Format: hoursFormat},
		{Title: "Time per week", Bars: minuteBars(res.WeekTotals, weekLabel), Format: hoursFormat},
		{Title: "Time per subject", Bars: minuteBars(res.SubjectTotals, identity), Format: hoursFormat},
		{Title: "Time per weekday", Bars: weekdayBars(WeekdayArray(res.WeekdayTotals)), Format: hoursFormat},
		{Title: "Average time per weekday", Bars: weekdayBars(WeekdayArray(res.WeekdayAvgMinutes)), Format: hoursFormat},
		{Title: "Average time per weekday (filtered)", Bars: weekdayBars(WeekdayArray(res.WeekdayAvgMinutesFiltered)), Format: hoursFormat},
		{Title: "Average quality per weekday", Bars: weekdayBars(WeekdayArray(res.WeekdayAvgQuality)), Format: qualityFormat},
	}
}

// RenderCharts prints every chart followed by the weekly trend plot.
func RenderCharts(w io.Writer, res Result, opts ChartOptions) error {
	for _, chart := range Charts(res) {
		if err := RenderBars(w, chart.Title, chart.Bars, opts.Width, chart.Format, opts.Color); err != nil {
			return err
		}
	}
	return RenderTrend(w, res, opts)
}

// RenderTrend plots weekly hours and their moving average.
func RenderTrend(w io.Writer, res Result, opts ChartOptions) error {
	if len(res.WeekTotals) < 2 {
		return nil
	}
	hours := minutesToHours(res.WeekTotals.Values())
	width := 0
	if opts.Width > 0 {
		width = PlotWidthFor(opts.Width)
	}
	window := opts.TrendWindow
	if window <= 0 {
		window = DefaultTrendWindow
	}
	return PlotSeriesWithColor(w, "Weekly trend (hours)", []Series{
		{Name: "Week", Values: hours},
		{Name: fmt.Sprintf("Moving average (%d)", window), Values: MovingAverage(hours, window)},
	}, width, opts.Height, opts.Color)
}
