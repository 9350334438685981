package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must behave the same for the operations the
// planner uses.
func exercise(t *testing.T, fsys FileSystem, dir string) {
	t.Helper()
	path := filepath.Join(dir, "scenario.json")

	_, err := fsys.ReadFile(path)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "read missing: %v", err)
	_, err = fsys.Stat(path)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "stat missing: %v", err)

	require.NoError(t, fsys.WriteFile(path, []byte(`{"name":"a"}`), 0o644))
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a"}`, string(data))

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(12), info.Size())
	assert.Equal(t, "scenario.json", info.Name())

	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("<html>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	data, err = fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(data))
}

func TestOSFileSystem(t *testing.T) {
	exercise(t, OSFileSystem{}, t.TempDir())
}

func TestMemoryFileSystem(t *testing.T) {
	exercise(t, NewMemoryFileSystem(), "/plans")
}

func TestMemoryFileSystem_ReadReturnsCopy(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("a.bin", []byte{1, 2}, 0o644))
	data, err := m.ReadFile("a.bin")
	require.NoError(t, err)
	data[0] = 9

	again, err := m.ReadFile("./a.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, again)
}
