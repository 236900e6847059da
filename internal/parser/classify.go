// Package parser turns a free-form time log into session records.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/worklog/internal/model"
)

// Kind identifies what a single log line contains.
type Kind int

// Line kinds, in matching priority order after Blank.
const (
	Unrecognized Kind = iota
	Blank
	DateHeader
	SessionEntry
	IgnoredWeeksDirective
	InvalidDateHeader
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case DateHeader:
		return "date"
	case SessionEntry:
		return "session"
	case IgnoredWeeksDirective:
		return "ignored-weeks"
	case InvalidDateHeader:
		return "invalid-date"
	default:
		return "unrecognized"
	}
}

const ignoredWeeksMarker = "ignored avg weeks:"

var (
	datePattern    = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	sessionPattern = regexp.MustCompile(`(\d{1,2})[.:](\d{1,2})\s*-\s*(\d{1,2})[.:](\d{1,2})\s(\d)\s(.*)`)
)

// Entry is the parsed payload of a session line.
type Entry struct {
	Start   model.Clock
	End     model.Clock
	Quality int
	Subject string
}

// Line is a classified log line. Only the field matching Kind is set.
type Line struct {
	Kind    Kind
	Date    model.Date
	Entry   Entry
	Ignored model.WeekSet
}

// Classify determines the kind of one raw line. Lines that match a
// pattern but carry impossible values are Unrecognized, except date
// headers, which become InvalidDateHeader.
func Classify(raw string) Line {
	if strings.TrimSpace(raw) == "" {
		return Line{Kind: Blank}
	}
	if m := datePattern.FindStringSubmatch(raw); m != nil {
		date, err := model.NewDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
		if err != nil {
			return Line{Kind: InvalidDateHeader}
		}
		return Line{Kind: DateHeader, Date: date}
	}
	if m := sessionPattern.FindStringSubmatch(raw); m != nil {
		entry, ok := sessionEntry(m)
		if !ok {
			return Line{Kind: Unrecognized}
		}
		return Line{Kind: SessionEntry, Entry: entry}
	}
	if idx := strings.Index(raw, ignoredWeeksMarker); idx >= 0 {
		weeks, err := model.ParseWeekSet(raw[idx+len(ignoredWeeksMarker):])
		if err != nil {
			return Line{Kind: Unrecognized}
		}
		return Line{Kind: IgnoredWeeksDirective, Ignored: weeks}
	}
	return Line{Kind: Unrecognized}
}

func sessionEntry(m []string) (Entry, bool) {
	start, err := model.NewClock(atoi(m[1]), atoi(m[2]))
	if err != nil {
		return Entry{}, false
	}
	end, err := model.NewClock(atoi(m[3]), atoi(m[4]))
	if err != nil {
		return Entry{}, false
	}
	subject := strings.TrimSpace(m[6])
	if subject == "" {
		return Entry{}, false
	}
	return Entry{
		Start:   start,
		End:     end,
		Quality: atoi(m[5]),
		Subject: subject,
	}, true
}

// atoi is only called on digit-only regexp captures.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
