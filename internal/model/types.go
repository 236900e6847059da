// Package model defines shared data structures.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const minutesPerDay = 24 * 60

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate validates the triple against the Gregorian calendar.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 {
		return Date{}, fmt.Errorf("invalid date %02d.%02d.%04d", day, month, year)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, fmt.Errorf("invalid date %02d.%02d.%04d", day, month, year)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Key renders the date as YYYYMMDD.
func (d Date) Key() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// ISOWeek returns the ISO week number and weekday (1=Monday..7=Sunday).
func (d Date) ISOWeek() (week int, weekday Weekday) {
	t := d.Time()
	_, week = t.ISOWeek()
	return week, WeekdayOf(t.Weekday())
}

func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, d.Month, d.Year)
}

// Clock is a time of day with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// NewClock validates hour and minute ranges.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid time %d:%02d", hour, minute)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Weekday is an ISO weekday, 1=Monday..7=Sunday.
type Weekday int

// ISO weekdays.
const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayOf maps a time.Weekday onto ISO numbering.
func WeekdayOf(wd time.Weekday) Weekday {
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// Index returns the zero-based position, 0=Monday.
func (w Weekday) Index() int {
	return int(w) - 1
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w.Index()]
}

// SessionRecord is one logged work interval.
type SessionRecord struct {
	Date    Date
	Start   Clock
	End     Clock
	Quality int
	Subject string
}

// DurationMinutes returns end minus start, wrapping past midnight.
func (r SessionRecord) DurationMinutes() int {
	d := r.End.Minutes() - r.Start.Minutes()
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// WeekSet is a set of ISO week numbers.
type WeekSet map[int]struct{}

// NewWeekSet builds a set from the given week numbers.
func NewWeekSet(weeks ...int) WeekSet {
	set := make(WeekSet, len(weeks))
	for _, w := range weeks {
		set[w] = struct{}{}
	}
	return set
}

// Contains reports whether week is in the set.
func (s WeekSet) Contains(week int) bool {
	_, ok := s[week]
	return ok
}

// Sorted returns the weeks in ascending order.
func (s WeekSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// ParseWeekSet reads week numbers separated by commas or whitespace.
// Each week must lie in 1-53. An empty input yields an empty set.
func ParseWeekSet(input string) (WeekSet, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	weeks := make(WeekSet, len(fields))
	for _, field := range fields {
		w, err := strconv.Atoi(field)
		if err != nil || w < 1 || w > 53 {
			return nil, fmt.Errorf("invalid week %q (use numbers 1-53)", field)
		}
		weeks[w] = struct{}{}
	}
	return weeks, nil
}
