package stats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/worklog/internal/model"
)

// ErrEmptyDataset matches every EmptyDatasetError.
var ErrEmptyDataset = errors.New("empty dataset")

// EmptyDatasetError reports an aggregation whose means are undefined.
type EmptyDatasetError struct {
	Reason string
}

func (e *EmptyDatasetError) Error() string {
	return "empty dataset: " + e.Reason
}

// Is makes errors.Is(err, ErrEmptyDataset) hold.
func (e *EmptyDatasetError) Is(target error) bool {
	return target == ErrEmptyDataset
}

// WeekCountPolicy selects how weeks are counted for weekday averages.
type WeekCountPolicy int

const (
	// WeekCountDistinct counts distinct week numbers seen.
	WeekCountDistinct WeekCountPolicy = iota
	// WeekCountSpan counts max-min+1, including weeks without sessions.
	WeekCountSpan
)

// ParseWeekCountPolicy accepts "distinct" or "span".
func ParseWeekCountPolicy(s string) (WeekCountPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "distinct":
		return WeekCountDistinct, nil
	case "span":
		return WeekCountSpan, nil
	default:
		return 0, fmt.Errorf("unknown week count policy %q (use distinct or span)", s)
	}
}

func (p WeekCountPolicy) String() string {
	if p == WeekCountSpan {
		return "span"
	}
	return "distinct"
}

// count expects weeks sorted ascending.
func (p WeekCountPolicy) count(weeks []int) int {
	if len(weeks) == 0 {
		return 0
	}
	if p == WeekCountSpan {
		return weeks[len(weeks)-1] - weeks[0] + 1
	}
	return len(weeks)
}

type options struct {
	weekCount WeekCountPolicy
}

// Option configures Aggregate.
type Option func(*options)

// WithWeekCount overrides the week counting policy.
func WithWeekCount(p WeekCountPolicy) Option {
	return func(o *options) {
		o.weekCount = p
	}
}

// QualitySample pairs a session duration with its quality score.
type QualitySample struct {
	Minutes int `json:"minutes" yaml:"minutes"`
	Quality int `json:"quality" yaml:"quality"`
}

// Summary holds the scalar statistics. Durations are minutes.
type Summary struct {
	TotalTime                       int     `json:"total_time" yaml:"total_time"`
	LongestDayTime                  int     `json:"longest_day_time" yaml:"longest_day_time"`
	LongestWeekTime                 int     `json:"longest_week_time" yaml:"longest_week_time"`
	AverageWeekTime                 float64 `json:"average_week_time" yaml:"average_week_time"`
	AverageWeekTimeFiltered         float64 `json:"average_week_time_filtered" yaml:"average_week_time_filtered"`
	AverageWeekTimeExclLast         float64 `json:"average_week_time_excl_last" yaml:"average_week_time_excl_last"`
	AverageWeekTimeFilteredExclLast float64 `json:"average_week_time_filtered_excl_last" yaml:"average_week_time_filtered_excl_last"`
	TotalWeekCount                  int     `json:"total_week_count" yaml:"total_week_count"`
	TotalWeekCountFiltered          int     `json:"total_week_count_filtered" yaml:"total_week_count_filtered"`
	// The excl-last averages are 0 unless these are set.
	HasPreviousWeeks         bool `json:"has_previous_weeks" yaml:"has_previous_weeks"`
	HasPreviousFilteredWeeks bool `json:"has_previous_filtered_weeks" yaml:"has_previous_filtered_weeks"`
}

// Result bundles every statistic derived from one set of records.
type Result struct {
	DayTotals                 OrderedMap[string, int]                    `json:"day_totals" yaml:"day_totals"`
	WeekTotals                OrderedMap[int, int]                       `json:"week_totals" yaml:"week_totals"`
	WeekTotalsFiltered        OrderedMap[int, int]                       `json:"week_totals_filtered" yaml:"week_totals_filtered"`
	SubjectTotals             OrderedMap[string, int]                    `json:"subject_totals" yaml:"subject_totals"`
	WeekdayTotals             OrderedMap[model.Weekday, int]             `json:"weekday_totals" yaml:"weekday_totals"`
	WeekdaySessions           OrderedMap[model.Weekday, []int]           `json:"weekday_sessions" yaml:"weekday_sessions"`
	WeekdaySessionsFiltered   OrderedMap[model.Weekday, []int]           `json:"weekday_sessions_filtered" yaml:"weekday_sessions_filtered"`
	WeekdayQuality            OrderedMap[model.Weekday, []QualitySample] `json:"weekday_quality_samples" yaml:"weekday_quality_samples"`
	WeekdayAvgMinutes         OrderedMap[model.Weekday, float64]         `json:"weekday_avg_minutes" yaml:"weekday_avg_minutes"`
	WeekdayAvgMinutesFiltered OrderedMap[model.Weekday, float64]         `json:"weekday_avg_minutes_filtered" yaml:"weekday_avg_minutes_filtered"`
	WeekdayAvgQuality         OrderedMap[model.Weekday, float64]         `json:"weekday_avg_quality" yaml:"weekday_avg_quality"`
	Ignored                   []int                                      `json:"ignored_weeks" yaml:"ignored_weeks"`
	Summary                   Summary                                    `json:"summary" yaml:"summary"`
}

func newResult() Result {
	return Result{
		DayTotals:                 OrderedMap[string, int]{},
		WeekTotals:                OrderedMap[int, int]{},
		WeekTotalsFiltered:        OrderedMap[int, int]{},
		SubjectTotals:             OrderedMap[string, int]{},
		WeekdayTotals:             OrderedMap[model.Weekday, int]{},
		WeekdaySessions:           OrderedMap[model.Weekday, []int]{},
		WeekdaySessionsFiltered:   OrderedMap[model.Weekday, []int]{},
		WeekdayQuality:            OrderedMap[model.Weekday, []QualitySample]{},
		WeekdayAvgMinutes:         OrderedMap[model.Weekday, float64]{},
		WeekdayAvgMinutesFiltered: OrderedMap[model.Weekday, float64]{},
		WeekdayAvgQuality:         OrderedMap[model.Weekday, float64]{},
	}
}

// Aggregate computes all statistics in a single pass over records.
// Week keys ignore the ISO year, so logs spanning a year boundary merge
// equal week numbers.
func Aggregate(records []model.SessionRecord, ignored model.WeekSet, opts ...Option) (Result, error) {
	if len(records) == 0 {
		return Result{}, &EmptyDatasetError{Reason: "no session records"}
	}
	o := options{weekCount: WeekCountDistinct}
	for _, opt := range opts {
		opt(&o)
	}

	res := newResult()
	res.Ignored = ignored.Sorted()
	for _, r := range records {
		minutes := r.DurationMinutes()
		week, weekday := r.Date.ISOWeek()

		res.Summary.TotalTime += minutes
		res.DayTotals.Update(r.Date.Key(), add(minutes))
		res.WeekTotals.Update(week, add(minutes))
		res.SubjectTotals.Update(r.Subject, add(minutes))
		res.WeekdayTotals.Update(weekday, add(minutes))
		res.WeekdaySessions.Update(weekday, appendTo(minutes))
		res.WeekdayQuality.Update(weekday, appendTo(QualitySample{Minutes: minutes, Quality: r.Quality}))
		if !ignored.Contains(week) {
			res.WeekTotalsFiltered.Update(week, add(minutes))
			res.WeekdaySessionsFiltered.Update(weekday, appendTo(minutes))
		}
	}
	if len(res.WeekTotalsFiltered) == 0 {
		return Result{}, &EmptyDatasetError{Reason: "every observed week is ignored"}
	}

	s := &res.Summary
	s.LongestDayTime = Max(res.DayTotals)
	s.LongestWeekTime = Max(res.WeekTotals)
	s.TotalWeekCount = o.weekCount.count(res.WeekTotals.Keys())
	s.TotalWeekCountFiltered = o.weekCount.count(res.WeekTotalsFiltered.Keys())

	weeks := res.WeekTotals.Values()
	s.AverageWeekTime = mean(weeks)
	if len(weeks) > 1 {
		s.HasPreviousWeeks = true
		s.AverageWeekTimeExclLast = mean(weeks[:len(weeks)-1])
	}
	filtered := res.WeekTotalsFiltered.Values()
	s.AverageWeekTimeFiltered = mean(filtered)
	if len(filtered) > 1 {
		s.HasPreviousFilteredWeeks = true
		s.AverageWeekTimeFilteredExclLast = mean(filtered[:len(filtered)-1])
	}

	for wd, durations := range res.WeekdaySessions {
		res.WeekdayAvgMinutes[wd] = float64(sumInts(durations)) / float64(s.TotalWeekCount)
	}
	for wd, durations := range res.WeekdaySessionsFiltered {
		res.WeekdayAvgMinutesFiltered[wd] = float64(sumInts(durations)) / float64(s.TotalWeekCountFiltered)
	}
	for wd, samples := range res.WeekdayQuality {
		var total, weighted int
		for _, sample := range samples {
			total += sample.Minutes
			weighted += sample.Minutes * sample.Quality
		}
		if total == 0 {
			continue
		}
		res.WeekdayAvgQuality[wd] = float64(weighted) / float64(total)
	}
	return res, nil
}

// WeekdayArray lays a weekday map out as Monday..Sunday; missing days are 0.
func WeekdayArray[V int | float64](m OrderedMap[model.Weekday, V]) [7]float64 {
	var out [7]float64
	for wd, v := range m {
		if wd < model.Monday || wd > model.Sunday {
			continue
		}
		out[wd.Index()] = float64(v)
	}
	return out
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(sumInts(values)) / float64(len(values))
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
