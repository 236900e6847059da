package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RenderReport prints the scalar statistics, one "Label: value" line each.
func RenderReport(w io.Writer, res Result) error {
	s := res.Summary
	prev := "n/a"
	if s.HasPreviousWeeks {
		prev = FormatMinutes(RoundMinutes(s.AverageWeekTimeExclLast))
	}
	prevFiltered := "n/a"
	if s.HasPreviousFilteredWeeks {
		prevFiltered = FormatMinutes(RoundMinutes(s.AverageWeekTimeFilteredExclLast))
	}
	lines := [][2]string{
		{"Total time", FormatMinutes(s.TotalTime)},
		{"Longest day", FormatMinutes(s.LongestDayTime)},
		{"Longest week", FormatMinutes(s.LongestWeekTime)},
		{"Average week", FormatMinutes(RoundMinutes(s.AverageWeekTime))},
		{"Average week (filtered)", FormatMinutes(RoundMinutes(s.AverageWeekTimeFiltered))},
		{"Average week (without current)", prev},
		{"Average week (filtered, without current)", prevFiltered},
		{"Total week count", strconv.Itoa(s.TotalWeekCount)},
		{"Total week count (filtered)", strconv.Itoa(s.TotalWeekCountFiltered)},
	}
	if len(res.Ignored) > 0 {
		weeks := make([]string, len(res.Ignored))
		for i, wk := range res.Ignored {
			weeks[i] = strconv.Itoa(wk)
		}
		lines = append(lines, [2]string{"Ignored weeks", strings.Join(weeks, ", ")})
	}
	if len(res.WeekTotals) > 1 {
		lines = append(lines, [2]string{"Weeks", Sparkline(minutesToHours(res.WeekTotals.Values()))})
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderWeekdayTable prints per-weekday totals, averages and quality.
func RenderWeekdayTable(w io.Writer, res Result) error {
	totals := WeekdayArray(res.WeekdayTotals)
	avg := WeekdayArray(res.WeekdayAvgMinutes)
	avgFiltered := WeekdayArray(res.WeekdayAvgMinutesFiltered)

	headers := []string{"Weekday", "Total", "Avg/week", "Avg/week (filtered)", "Sessions", "Quality"}
	rows := make([][]string, 0, len(totals))
	for i := range totals {
		wd := weekdayAt(i)
		quality := "-"
		if q, ok := res.WeekdayAvgQuality[wd]; ok {
			quality = fmt.Sprintf("%.2f", q)
		}
		rows = append(rows, []string{
			wd.String(),
			FormatHours(totals[i]),
			FormatHours(avg[i]),
			FormatHours(avgFiltered[i]),
			strconv.Itoa(len(res.WeekdaySessions[wd])),
			quality,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
