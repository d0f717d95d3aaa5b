package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out", "nested", "steak.md")
	require.NoError(t, SafeWriteFile(p, []byte("# steak\n")))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "# steak\n", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
	assert.True(t, IsDir(filepath.Dir(p)))
	assert.False(t, IsDir(p))
}

func TestSafeWriteFileOverwrites(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, SafeWriteFile(p, []byte("1")))
	require.NoError(t, SafeWriteFile(p, []byte("2")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "2", string(b))
}
