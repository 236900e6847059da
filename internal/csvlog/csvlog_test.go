package csvlog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/worklog/internal/model"
)

func sampleRecords() []model.SessionRecord {
	return []model.SessionRecord{
		{
			Date:    model.Date{Year: 2021, Month: 3, Day: 1},
			Start:   model.Clock{Hour: 9, Minute: 0},
			End:     model.Clock{Hour: 10, Minute: 30},
			Quality: 7,
			Subject: "Math",
		},
		{
			Date:    model.Date{Year: 2021, Month: 12, Day: 31},
			Start:   model.Clock{Hour: 23, Minute: 30},
			End:     model.Clock{Hour: 0, Minute: 15},
			Quality: 0,
			Subject: `Reading, "quoted" notes`,
		},
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords()[:1]))
	assert.Equal(t, "2021,03,01,09,00,10,30,7,Math\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "2021.csv")
	records := sampleRecords()
	require.NoError(t, WriteFile(path, records))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestReadEmpty(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		row   int
	}{
		{"too few fields", "2021,03,01,09,00,10,30,7\n", 1},
		{"too many fields", "2021,03,01,09,00,10,30,7,Math,extra\n", 1},
		{"non numeric", "2021,03,01,09,00,10,30,7,Math\n2021,xx,01,09,00,10,30,7,Math\n", 2},
		{"bad date", "2021,02,30,09,00,10,30,7,Math\n", 1},
		{"bad minute", "2021,03,01,09,60,10,30,7,Math\n", 1},
		{"bad quality", "2021,03,01,09,00,10,30,12,Math\n", 1},
		{"empty subject", "2021,03,01,09,00,10,30,7, \n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			var rowErr *MalformedRowError
			require.True(t, errors.As(err, &rowErr), "got %v", err)
			assert.Equal(t, tt.row, rowErr.Row)
		})
	}
}
