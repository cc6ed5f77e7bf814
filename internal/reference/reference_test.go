package reference

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reshape/internal/reshape"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpen_LoadsColumns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "base.csv", "\xEF\xBB\xBFID,Name,Value,Date,Extra\n1,a,2,d,e\n")

	store, err := Open(path, nil, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Name", "Value", "Date", "Extra"}, store.Schema().Columns())
	st := store.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Fallback)
	assert.Equal(t, 1, st.Rows)
}

func TestOpen_MissingFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	store, err := Open(path, nil, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, reshape.FallbackColumns, store.Schema().Columns())
	st := store.Status()
	assert.True(t, st.Fallback)
	assert.NotEmpty(t, st.Error)

	_, err = store.Template()
	assert.ErrorIs(t, err, ErrLoad)
}

func TestTemplate_RereadsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "base.csv", "a,b\n1,2\n")

	store, err := Open(path, nil, quietLogger())
	require.NoError(t, err)

	first, err := store.Template()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	writeFile(t, dir, "base.csv", "a,b\n1,2\n3,4\n")
	second, err := store.Template()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())

	// schema is captured once
	assert.Equal(t, []string{"a", "b"}, store.Schema().Columns())
}

func TestLoadTable_KeepsFileShape(t *testing.T) {
	path := writeFile(t, t.TempDir(), "base.csv", " ID ,Name,,Date,\n1,a,x,d,\n,,,,\n,,,,\n")

	tbl, err := LoadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{" ID ", "Name", "Unnamed: 2", "Date", "Unnamed: 4"}, tbl.Names())
	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.Cell(2, 0).IsNull())

	store, err := Open(path, map[string]string{}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, tbl.Names(), store.Schema().Columns())
	assert.Equal(t, 3, store.Status().Rows)
}

func TestLoadRenameMapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path uses defaults", func(t *testing.T) {
		m, err := LoadRenameMapping("")
		require.NoError(t, err)
		assert.Equal(t, reshape.DefaultRename(), m)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeFile(t, dir, "map.yaml", "rename:\n  顧客ID: ID\n  日付: Date\n")
		m, err := LoadRenameMapping(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"顧客ID": "ID", "日付": "Date"}, m)
	})

	t.Run("no entries", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "other: 1\n")
		_, err := LoadRenameMapping(path)
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "rename: [unclosed\n")
		_, err := LoadRenameMapping(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRenameMapping(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
