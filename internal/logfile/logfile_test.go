package logfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("01.03.2021\n"), 0o644))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2021-03.txt")
	touch(t, dir, "2021-01.txt")
	touch(t, dir, "2021-01.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.txt"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01.txt", "2021-03.txt"}, names)
}

func TestResolveLatest(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2021-01.txt")
	touch(t, dir, "2021-03.txt")

	paths, err := Resolve(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "2021-03", paths.Name)
	assert.Equal(t, filepath.Join(dir, "2021-03.txt"), paths.Text)
	assert.Equal(t, filepath.Join(dir, "2021-03.csv"), paths.CSV)
}

func TestResolveSelector(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2021-01.txt")
	touch(t, dir, "2021-03.txt")

	for _, selector := range []string{"2021-01", "2021-01.txt", " 2021-01 "} {
		paths, err := Resolve(dir, selector)
		require.NoError(t, err, selector)
		assert.Equal(t, "2021-01", paths.Name)
	}

	_, err := Resolve(dir, "1999-12")
	assert.Error(t, err)
}

func TestResolveEmptyDir(t *testing.T) {
	_, err := Resolve(t.TempDir(), "")
	assert.True(t, errors.Is(err, ErrNoLogs), "got %v", err)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing"), "")
	assert.True(t, errors.Is(err, ErrNoLogs), "got %v", err)
}
