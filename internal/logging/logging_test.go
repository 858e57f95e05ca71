package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyWriter_WritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("again\n"))
	require.NoError(t, err)

	bs, err := os.ReadFile(filepath.Join(dir, "interceptor-2026-03-14.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nagain\n", string(bs))
}

func TestDailyWriter_RollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("before\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("after\n"))
	require.NoError(t, err)

	before, err := os.ReadFile(filepath.Join(dir, "interceptor-2026-03-14.log"))
	require.NoError(t, err)
	assert.Equal(t, "before\n", string(before))

	after, err := os.ReadFile(filepath.Join(dir, "interceptor-2026-03-15.log"))
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(after))
}

func TestCleanupOld(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "interceptor-2020-01-01.log")
	newFile := filepath.Join(dir, "interceptor-today.log")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(newFile, []byte("new"), 0o644))

	stale := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, stale, stale))

	removed, err := CleanupOld(dir, Retention)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newFile)
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := NewLogger(dir, false)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("interceptor.test", "key", "value")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	bs, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(bs), "interceptor.test")
	assert.Contains(t, string(bs), "key=value")
}
