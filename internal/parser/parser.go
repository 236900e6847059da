package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/verte-zerg/worklog/internal/model"
)

// SequenceError reports a session line with no valid date header above it.
type SequenceError struct {
	Line int
	Text string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("line %d: session entry has no valid date header: %q", e.Line, e.Text)
}

// UnrecognizedLine is a skipped line. It never aborts a parse.
type UnrecognizedLine struct {
	Line int
	Text string
}

func (u UnrecognizedLine) String() string {
	return fmt.Sprintf("could not parse line %d: %s", u.Line, u.Text)
}

// Result is the outcome of a full parse.
type Result struct {
	Records  []model.SessionRecord
	Ignored  model.WeekSet
	Warnings []UnrecognizedLine
}

// Parse reads the whole log in one forward pass.
func Parse(r io.Reader) (Result, error) {
	res := Result{Ignored: model.WeekSet{}}
	var current *model.Date

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := Classify(raw)
		switch line.Kind {
		case Blank:
		case DateHeader:
			date := line.Date
			current = &date
		case SessionEntry:
			if current == nil {
				return Result{}, &SequenceError{Line: lineNo, Text: raw}
			}
			res.Records = append(res.Records, model.SessionRecord{
				Date:    *current,
				Start:   line.Entry.Start,
				End:     line.Entry.End,
				Quality: line.Entry.Quality,
				Subject: line.Entry.Subject,
			})
		case IgnoredWeeksDirective:
			res.Ignored = line.Ignored
		case InvalidDateHeader:
			current = nil
			res.Warnings = append(res.Warnings, UnrecognizedLine{Line: lineNo, Text: raw})
		default:
			res.Warnings = append(res.Warnings, UnrecognizedLine{Line: lineNo, Text: raw})
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only log.
			_ = cerr
		}
	}()
	return Parse(file)
}
