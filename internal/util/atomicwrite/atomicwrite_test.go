package atomicwrite

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "current.key")

	require.NoError(t, WriteFile(path, []byte("s1"), 0o600, false))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s1", string(b))
	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0o600), st.Mode().Perm())
	}

	err = WriteFile(path, []byte("s2"), 0o600, false)
	assert.ErrorIs(t, err, fs.ErrExist)

	require.NoError(t, WriteFile(path, []byte("s2"), 0o600, true))
	b, _ = os.ReadFile(path)
	assert.Equal(t, "s2", string(b))

	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1, "no temp files left behind")
}
