package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rw, err := Setup(path, 64)
	require.NoError(t, err)
	defer func() {
		rw.Close()
		log.SetOutput(os.Stderr)
	}()

	_, err = rw.Write([]byte(strings.Repeat("a", 80)))
	require.NoError(t, err)
	_, err = rw.Write([]byte("after\n"))
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, backup, 80)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(current))
}

func TestSetup_TruncatesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 200)), 0644))

	rw, err := Setup(path, 100)
	require.NoError(t, err)
	defer func() {
		rw.Close()
		log.SetOutput(os.Stderr)
	}()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestRotatingWriter_FallsBackToStderrWhenReopenFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.Mkdir(dir, 0755))

	rw, err := Setup(filepath.Join(dir, "test.log"), 64)
	require.NoError(t, err)
	defer func() {
		rw.Close()
		log.SetOutput(os.Stderr)
	}()

	require.NoError(t, os.RemoveAll(dir))

	_, err = rw.Write([]byte(strings.Repeat("a", 80)))
	require.NoError(t, err)
	assert.Same(t, os.Stderr, rw.file)

	_, err = rw.Write([]byte("after\n"))
	assert.NoError(t, err)
	assert.NoError(t, rw.Close())
}
