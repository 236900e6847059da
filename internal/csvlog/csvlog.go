// Package csvlog materializes session records as a nine-column CSV file.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/worklog/internal/model"
)

// FieldCount is the number of columns per row.
const FieldCount = 9

// MalformedRowError reports a row that cannot be turned back into a record.
type MalformedRowError struct {
	Row    int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Write encodes records in input order, one row each.
func Write(w io.Writer, records []model.SessionRecord) error {
	writer := csv.NewWriter(w)
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Date.Year),
			fmt.Sprintf("%02d", r.Date.Month),
			fmt.Sprintf("%02d", r.Date.Day),
			fmt.Sprintf("%02d", r.Start.Hour),
			fmt.Sprintf("%02d", r.Start.Minute),
			fmt.Sprintf("%02d", r.End.Hour),
			fmt.Sprintf("%02d", r.End.Minute),
			strconv.Itoa(r.Quality),
			strings.TrimSpace(r.Subject),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile replaces path atomically with the encoded records.
func WriteFile(path string, records []model.SessionRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create csv dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "worklog-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp csv: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Write(tmpFile, records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Read decodes every row. The first bad row stops the read.
func Read(r io.Reader) ([]model.SessionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []model.SessionRecord
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedRowError{Row: row, Reason: err.Error()}
		}
		rec, err := decodeRow(fields)
		if err != nil {
			return nil, &MalformedRowError{Row: row, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile opens path and decodes it.
func ReadFile(path string) ([]model.SessionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only csv.
			_ = cerr
		}
	}()
	return Read(file)
}

func decodeRow(fields []string) (model.SessionRecord, error) {
	if len(fields) != FieldCount {
		return model.SessionRecord{}, fmt.Errorf("expected %d fields, got %d", FieldCount, len(fields))
	}
	names := [...]string{"year", "month", "day", "start hour", "start minute", "end hour", "end minute", "quality"}
	var nums [len(names)]int
	for i, name := range names {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return model.SessionRecord{}, fmt.Errorf("%s %q is not a number", name, fields[i])
		}
		nums[i] = n
	}
	date, err := model.NewDate(nums[0], nums[1], nums[2])
	if err != nil {
		return model.SessionRecord{}, err
	}
	start, err := model.NewClock(nums[3], nums[4])
	if err != nil {
		return model.SessionRecord{}, err
	}
	end, err := model.NewClock(nums[5], nums[6])
	if err != nil {
		return model.SessionRecord{}, err
	}
	if nums[7] < 0 || nums[7] > 9 {
		return model.SessionRecord{}, fmt.Errorf("quality %d out of range 0-9", nums[7])
	}
	subject := strings.TrimSpace(fields[8])
	if subject == "" {
		return model.SessionRecord{}, fmt.Errorf("subject is empty")
	}
	return model.SessionRecord{
		Date:    date,
		Start:   start,
		End:     end,
		Quality: nums[7],
		Subject: subject,
	}, nil
}
