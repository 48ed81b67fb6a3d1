package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapped.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestMmap_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")

	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7) // "Mmap!"
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	// ReadAt out of bounds
	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	// ReadAt partial
	buf3 := make([]byte, 10)
	n, err = m.ReadAt(buf3, 7)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "Mmap!", string(buf3[:n]))

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)
}

func TestMmap_EmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.Equal(t, io.EOF, err)
}

func TestMmap_AfterClose(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("data")))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMmap_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
