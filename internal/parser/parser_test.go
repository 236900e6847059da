package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/worklog/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Kind
	}{
		{"date", "01.03.2021", DateHeader},
		{"date with text", "Monday 01.03.2021 (home)", DateHeader},
		{"session colon", "09:00-10:30 7 Math", SessionEntry},
		{"session dot", "9.05 - 10.5 3 Reading papers", SessionEntry},
		{"directive", "ignored avg weeks: 3, 4", IgnoredWeeksDirective},
		{"empty directive", "ignored avg weeks: ", IgnoredWeeksDirective},
		{"blank", "   \t", Blank},
		{"two digit quality", "09:00-10:00 12 Math", Unrecognized},
		{"missing quality", "09:00-10:00 Math", Unrecognized},
		{"invalid date", "31.02.2021", InvalidDateHeader},
		{"out of range week", "ignored avg weeks: 54", Unrecognized},
		{"invalid hour", "25:00-26:00 5 Math", Unrecognized},
		{"empty subject", "09:00-10:00 5  ", Unrecognized},
		{"bad directive", "ignored avg weeks: a, b", Unrecognized},
		{"prose", "felt tired today", Unrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line).Kind)
		})
	}
}

func TestClassifyExclusive(t *testing.T) {
	dates := []string{"01.03.2021", "31.12.1999", " 15.06.2020 "}
	for _, line := range dates {
		assert.Nil(t, sessionPattern.FindStringSubmatch(line), line)
		assert.NotContains(t, line, ignoredWeeksMarker)
	}
	sessions := []string{"09:00-10:30 7 Math", "23.30 - 0.15 5 Night shift"}
	for _, line := range sessions {
		assert.Nil(t, datePattern.FindStringSubmatch(line), line)
		assert.NotContains(t, line, ignoredWeeksMarker)
	}
	directive := "ignored avg weeks: 1,2,3"
	assert.Nil(t, datePattern.FindStringSubmatch(directive))
	assert.Nil(t, sessionPattern.FindStringSubmatch(directive))
}

func TestClassifySessionFields(t *testing.T) {
	line := Classify("23:30-0:15 9 Late study  \r")
	require.Equal(t, SessionEntry, line.Kind)
	assert.Equal(t, model.Clock{Hour: 23, Minute: 30}, line.Entry.Start)
	assert.Equal(t, model.Clock{Hour: 0, Minute: 15}, line.Entry.End)
	assert.Equal(t, 9, line.Entry.Quality)
	assert.Equal(t, "Late study", line.Entry.Subject)
}

func TestParseEndToEnd(t *testing.T) {
	input := strings.Join([]string{
		"01.03.2021",
		"09:00-10:30 7 Math",
		"10:30-11:00 5 Break",
		"08.03.2021",
		"09:00-11:00 8 Math",
		"ignored avg weeks: ",
	}, "\n")

	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Ignored)

	first := res.Records[0]
	assert.Equal(t, model.Date{Year: 2021, Month: 3, Day: 1}, first.Date)
	assert.Equal(t, 90, first.DurationMinutes())
	assert.Equal(t, "Break", res.Records[1].Subject)
	assert.Equal(t, model.Date{Year: 2021, Month: 3, Day: 8}, res.Records[2].Date)
}

func TestParseSequenceError(t *testing.T) {
	_, err := Parse(strings.NewReader("10:00-11:00 5 Math\n01.03.2021\n"))
	var seqErr *SequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, 1, seqErr.Line)
	assert.Equal(t, "10:00-11:00 5 Math", seqErr.Text)
}

func TestParseInvalidDateHeaderDropsCurrentDate(t *testing.T) {
	input := "01.03.2021\n09:00-10:00 5 Math\n31.02.2021\n09:00-11:00 5 Physics\n"
	_, err := Parse(strings.NewReader(input))
	var seqErr *SequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, 4, seqErr.Line)
	assert.Equal(t, "09:00-11:00 5 Physics", seqErr.Text)

	res, err := Parse(strings.NewReader("01.03.2021\n31.02.2021\n02.03.2021\n09:00-10:00 5 Math\n"))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, model.Date{Year: 2021, Month: 3, Day: 2}, res.Records[0].Date)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Line)
}

func TestParseContinuesPastUnrecognized(t *testing.T) {
	input := "01.03.2021\nnotes about the day\n09:00-10:00 12 Math\n10:00-11:00 4 Math\n"
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, UnrecognizedLine{Line: 2, Text: "notes about the day"}, res.Warnings[0])
	assert.Equal(t, 3, res.Warnings[1].Line)
}

func TestParseLastDirectiveWins(t *testing.T) {
	input := "ignored avg weeks: 1, 2\n01.03.2021\n09:00-10:00 5 Math\nignored avg weeks: 7\n"
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []int{7}, res.Ignored.Sorted())

	res, err = Parse(strings.NewReader("ignored avg weeks: 1\nignored avg weeks:\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Ignored)
}

func TestParseDatePersists(t *testing.T) {
	input := "01.03.2021\n09:00-10:00 5 A\n11:00-12:00 5 B\n02.03.2021\n08:00-09:00 5 C\n"
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Records[1].Date.Day)
	assert.Equal(t, 2, res.Records[2].Date.Day)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2021.txt")
	require.NoError(t, os.WriteFile(path, []byte("01.03.2021\r\n23:30-00:15 6 Night\r\n"), 0o644))

	res, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Night", res.Records[0].Subject)
	assert.Equal(t, 45, res.Records[0].DurationMinutes())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
