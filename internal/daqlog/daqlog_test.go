package daqlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDailyCSVSinkWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDailyCSVSink(dir, []string{"a", "b"})
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write([]string{"1", "2"}))
	require.NoError(t, sink.Write([]string{"3", "4"}))
	sink.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n3,4\n", string(contents))
}

func TestDailyCSVSinkReopensExistingFileWithoutDuplicatingHeader(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDailyCSVSink(dir, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, sink.Write([]string{"1", "2"}))
	require.NoError(t, sink.Close())

	sink2, err := NewDailyCSVSink(dir, []string{"a", "b"})
	require.NoError(t, err)
	defer sink2.Close()
	require.NoError(t, sink2.Write([]string{"3", "4"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n3,4\n", string(contents))
}

func TestNewLoggerDoesNotPanic(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	logger := New(f, "debug")
	logger.Info("test message", "key", "value")
}
