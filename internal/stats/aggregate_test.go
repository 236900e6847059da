package stats

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/worklog/internal/model"
)

func rec(year, month, day, sh, sm, eh, em, quality int, subject string) model.SessionRecord {
	return model.SessionRecord{
		Date:    model.Date{Year: year, Month: month, Day: day},
		Start:   model.Clock{Hour: sh, Minute: sm},
		End:     model.Clock{Hour: eh, Minute: em},
		Quality: quality,
		Subject: subject,
	}
}

func TestAggregateExample(t *testing.T) {
	records := []model.SessionRecord{
		rec(2021, 3, 1, 9, 0, 10, 30, 7, "Math"),
		rec(2021, 3, 1, 10, 30, 11, 0, 5, "Break"),
		rec(2021, 3, 8, 9, 0, 11, 0, 8, "Math"),
	}
	res, err := Aggregate(records, model.WeekSet{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := res.DayTotals["20210301"]; got != 120 {
		t.Fatalf("expected 120 minutes on 20210301, got %d", got)
	}
	if got := res.DayTotals["20210308"]; got != 120 {
		t.Fatalf("expected 120 minutes on 20210308, got %d", got)
	}
	if res.SubjectTotals["Math"] != 210 || res.SubjectTotals["Break"] != 30 {
		t.Fatalf("unexpected subject totals: %v", res.SubjectTotals)
	}
	if res.Summary.TotalTime != 240 {
		t.Fatalf("expected total 240, got %d", res.Summary.TotalTime)
	}
	// 2021-03-01 is in ISO week 9, 2021-03-08 in week 10.
	if res.WeekTotals[9] != 120 || res.WeekTotals[10] != 120 {
		t.Fatalf("unexpected week totals: %v", res.WeekTotals)
	}
	if res.Summary.TotalWeekCount != 2 {
		t.Fatalf("expected 2 weeks, got %d", res.Summary.TotalWeekCount)
	}
	if res.WeekdayTotals[model.Monday] != 240 {
		t.Fatalf("expected all time on Monday, got %v", res.WeekdayTotals)
	}
	if got := res.WeekdayAvgMinutes[model.Monday]; got != 120 {
		t.Fatalf("expected Monday average 120, got %v", got)
	}
	wantQuality := float64(90*7+30*5+120*8) / 240
	if got := res.WeekdayAvgQuality[model.Monday]; math.Abs(got-wantQuality) > 1e-9 {
		t.Fatalf("expected quality %v, got %v", wantQuality, got)
	}
}

func TestAggregateSingleWeek(t *testing.T) {
	records := []model.SessionRecord{
		rec(2021, 3, 1, 9, 0, 10, 30, 7, "Math"),
		rec(2021, 3, 3, 10, 30, 11, 0, 5, "Break"),
		rec(2021, 3, 7, 9, 0, 11, 0, 8, "Math"),
	}
	res, err := Aggregate(records, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if res.WeekTotals[9] != 240 || len(res.WeekTotals) != 1 {
		t.Fatalf("unexpected week totals: %v", res.WeekTotals)
	}
	if res.Summary.TotalWeekCount != 1 {
		t.Fatalf("expected 1 week, got %d", res.Summary.TotalWeekCount)
	}
	if res.Summary.HasPreviousWeeks || res.Summary.AverageWeekTimeExclLast != 0 {
		t.Fatalf("expected no previous weeks: %+v", res.Summary)
	}
	if res.Summary.AverageWeekTime != 240 || res.Summary.LongestWeekTime != 240 {
		t.Fatalf("unexpected week stats: %+v", res.Summary)
	}
	if res.WeekdayTotals[model.Sunday] != 120 || res.WeekdayTotals[model.Wednesday] != 30 {
		t.Fatalf("unexpected weekday totals: %v", res.WeekdayTotals)
	}
}

func TestAggregateMidnightWrap(t *testing.T) {
	res, err := Aggregate([]model.SessionRecord{rec(2021, 3, 1, 23, 30, 0, 15, 5, "Night")}, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if res.Summary.TotalTime != 45 {
		t.Fatalf("expected 45 minutes, got %d", res.Summary.TotalTime)
	}
}

func TestAggregateSumInvariant(t *testing.T) {
	records := []model.SessionRecord{
		rec(2021, 1, 4, 8, 0, 9, 15, 3, "A"),
		rec(2021, 1, 6, 22, 0, 1, 0, 4, "B"),
		rec(2021, 1, 12, 10, 0, 10, 0, 9, "A"),
		rec(2021, 2, 20, 13, 5, 17, 40, 6, "C"),
		rec(2021, 2, 21, 7, 0, 7, 30, 2, "B"),
		rec(2021, 5, 30, 12, 0, 12, 1, 0, "D"),
	}
	res, err := Aggregate(records, model.NewWeekSet(2))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	total := res.Summary.TotalTime
	sums := map[string]int{
		"day":     Sum(res.DayTotals),
		"week":    Sum(res.WeekTotals),
		"subject": Sum(res.SubjectTotals),
		"weekday": Sum(res.WeekdayTotals),
	}
	for name, sum := range sums {
		if sum != total {
			t.Fatalf("%s totals sum to %d, expected %d", name, sum, total)
		}
	}
	sessions := 0
	for _, list := range res.WeekdaySessions {
		sessions += len(list)
	}
	if sessions != len(records) {
		t.Fatalf("expected %d weekday sessions, got %d", len(records), sessions)
	}
}

func TestAggregateFilterInvariant(t *testing.T) {
	records := []model.SessionRecord{
		rec(2021, 1, 4, 8, 0, 9, 0, 3, "A"),   // week 1
		rec(2021, 1, 11, 8, 0, 10, 0, 3, "A"), // week 2
		rec(2021, 1, 18, 8, 0, 11, 0, 3, "A"), // week 3
		rec(2021, 1, 25, 8, 0, 12, 0, 3, "A"), // week 4
	}
	ignored := model.NewWeekSet(2, 40)
	res, err := Aggregate(records, ignored)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	for week := range res.WeekTotalsFiltered {
		if _, ok := res.WeekTotals[week]; !ok {
			t.Fatalf("filtered week %d missing from unfiltered totals", week)
		}
		if ignored.Contains(week) {
			t.Fatalf("ignored week %d present in filtered totals", week)
		}
	}
	for week := range res.WeekTotals {
		_, kept := res.WeekTotalsFiltered[week]
		if kept == ignored.Contains(week) {
			t.Fatalf("week %d filtered incorrectly", week)
		}
	}
	s := res.Summary
	if s.TotalWeekCount != 4 || s.TotalWeekCountFiltered != 3 {
		t.Fatalf("unexpected week counts: %+v", s)
	}
	if s.AverageWeekTime != 150 {
		t.Fatalf("expected average 150, got %v", s.AverageWeekTime)
	}
	if s.AverageWeekTimeFiltered != float64(60+180+240)/3 {
		t.Fatalf("unexpected filtered average %v", s.AverageWeekTimeFiltered)
	}
	if s.AverageWeekTimeExclLast != float64(60+120+180)/3 {
		t.Fatalf("unexpected excl-last average %v", s.AverageWeekTimeExclLast)
	}
	if s.AverageWeekTimeFilteredExclLast != float64(60+180)/2 {
		t.Fatalf("unexpected filtered excl-last average %v", s.AverageWeekTimeFilteredExclLast)
	}
	if got := res.WeekdayAvgMinutesFiltered[model.Monday]; got != float64(60+180+240)/3 {
		t.Fatalf("unexpected filtered Monday average %v", got)
	}
	if len(res.WeekdaySessionsFiltered[model.Monday]) != 3 {
		t.Fatalf("expected 3 filtered Monday sessions, got %v", res.WeekdaySessionsFiltered)
	}
}

func TestAggregateWeekCountPolicy(t *testing.T) {
	records := []model.SessionRecord{
		rec(2021, 1, 4, 8, 0, 9, 0, 3, "A"),  // week 1
		rec(2021, 2, 1, 8, 0, 10, 0, 3, "A"), // week 5
	}
	res, err := Aggregate(records, nil, WithWeekCount(WeekCountSpan))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if res.Summary.TotalWeekCount != 5 {
		t.Fatalf("expected span of 5 weeks, got %d", res.Summary.TotalWeekCount)
	}
	if got := res.WeekdayAvgMinutes[model.Monday]; got != 36 {
		t.Fatalf("expected Monday average 36, got %v", got)
	}
	if _, err := ParseWeekCountPolicy("weird"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected empty dataset error, got %v", err)
	}
	_, err = Aggregate([]model.SessionRecord{rec(2021, 1, 4, 8, 0, 9, 0, 3, "A")}, model.NewWeekSet(1))
	var emptyErr *EmptyDatasetError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyDatasetError when all weeks are ignored, got %v", err)
	}
}

func TestAggregateZeroDurationQuality(t *testing.T) {
	res, err := Aggregate([]model.SessionRecord{rec(2021, 1, 5, 8, 0, 8, 0, 3, "A")}, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if _, ok := res.WeekdayAvgQuality[model.Tuesday]; ok {
		t.Fatalf("zero-duration weekday should not have a quality average")
	}
	if _, ok := res.DayTotals["20210105"]; !ok {
		t.Fatalf("zero-duration session should still create a day entry")
	}
}

func TestOrderedMapKeys(t *testing.T) {
	m := OrderedMap[int, int]{10: 1, 2: 2, 33: 3}
	keys := m.Keys()
	if len(keys) != 3 || keys[0] != 2 || keys[1] != 10 || keys[2] != 33 {
		t.Fatalf("unexpected key order: %v", keys)
	}
	var seen []int
	for k := range m.All() {
		seen = append(seen, k)
		if k == 10 {
			break
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected early stop after 2 keys, got %v", seen)
	}
	if vals := m.Values(); vals[0] != 2 || vals[2] != 3 {
		t.Fatalf("unexpected values: %v", vals)
	}
}

func TestOrderedMapMarshalJSON(t *testing.T) {
	weeks := OrderedMap[int, int]{11: 60, 9: 30, 10: 45}
	data, err := json.Marshal(weeks)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"9":30,"10":45,"11":60}` {
		t.Fatalf("unexpected json %s", got)
	}

	subjects := OrderedMap[string, []int]{"b\"x": {1}, "a": nil}
	data, err = json.Marshal(subjects)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"a":null,"b\"x":[1]}` {
		t.Fatalf("unexpected json %s", got)
	}

	var empty OrderedMap[model.Weekday, float64]
	data, err = json.Marshal(empty)
	if err != nil || string(data) != "null" {
		t.Fatalf("nil map: %s, %v", data, err)
	}

	back := map[string]int{}
	data, _ = json.Marshal(weeks)
	if err := json.Unmarshal(data, &back); err != nil || back["10"] != 45 {
		t.Fatalf("round trip: %v, %v", back, err)
	}
}

func TestWeekdayArray(t *testing.T) {
	arr := WeekdayArray(OrderedMap[model.Weekday, int]{model.Monday: 60, model.Sunday: 30})
	if arr[0] != 60 || arr[6] != 30 || arr[3] != 0 {
		t.Fatalf("unexpected weekday array: %v", arr)
	}
}
