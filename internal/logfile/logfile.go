// Package logfile locates the text logs inside the data directory.
package logfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	textExt = ".txt"
	csvExt  = ".csv"
)

// ErrNoLogs is returned when the data directory holds no text logs.
var ErrNoLogs = errors.New("no log files found")

// Paths pairs a text log with its materialized CSV.
type Paths struct {
	Name string
	Text string
	CSV  string
}

// List returns the sorted names of the text logs in dataDir.
func List(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: data directory %s does not exist", ErrNoLogs, dataDir)
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), textExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Resolve picks the log named by selector, or the newest log when selector
// is empty. Log names sort chronologically, so newest is lexicographically last.
func Resolve(dataDir, selector string) (Paths, error) {
	selector = strings.TrimSpace(selector)
	name := selector
	if name == "" {
		names, err := List(dataDir)
		if err != nil {
			return Paths{}, err
		}
		if len(names) == 0 {
			return Paths{}, fmt.Errorf("%w in %s", ErrNoLogs, dataDir)
		}
		name = names[len(names)-1]
	} else if !strings.HasSuffix(name, textExt) {
		name += textExt
	}
	text := filepath.Join(dataDir, name)
	if _, err := os.Stat(text); err != nil {
		if os.IsNotExist(err) {
			return Paths{}, fmt.Errorf("log file %s does not exist", text)
		}
		return Paths{}, fmt.Errorf("failed to stat log file: %w", err)
	}
	return Paths{
		Name: strings.TrimSuffix(name, textExt),
		Text: text,
		CSV:  CSVPath(text),
	}, nil
}

// CSVPath maps a text log path to its CSV sibling.
func CSVPath(textPath string) string {
	return strings.TrimSuffix(textPath, textExt) + csvExt
}
