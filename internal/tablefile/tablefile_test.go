package tablefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileIsEmpty(t *testing.T) {
	rows, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "table.csv")
	err := Write(path, []string{"doctor", "time"}, [][]string{
		{"Dr. Smith", "9:00"},
		{"Dr. Brown, Jr.", "13:30"},
	})
	require.NoError(t, err)

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dr. Brown, Jr.", rows[1].Get("doctor"))
	assert.Equal(t, "13:30", rows[1].Get("time"))
	assert.Equal(t, "", rows[0].Get("missing"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestReadShortRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufefffirst_name,last_name,group_number\nJane,Doe\n"), 0o644))

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane", rows[0].Get("first_name"))
	assert.Equal(t, "", rows[0].Get("group_number"))
}
