package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"a.txt", "text/plain; charset=utf-8"},
		{"a.PDF", "application/pdf"},
		{"a.json", "application/json"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			assert.Equal(t, tt.wantType, ContentType(tt.filePath))
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "transcripts/task-1/a.txt", ObjectKey("task-1", "a.txt"))
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir, logging.Nop())
	require.NoError(t, err)
	return s, dir
}

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

func TestListSkipsDirectoriesAndSortsNewestFirst(t *testing.T) {
	s, dir := newTestStore(t)
	now := time.Now()
	writeFile(t, dir, "old.txt", "a", now.Add(-2*time.Hour))
	writeFile(t, dir, "new.pdf", "bb", now.Add(-time.Minute))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "new.pdf", files[0].Filename)
	assert.Equal(t, int64(2), files[0].SizeBytes)
	assert.Equal(t, "old.txt", files[1].Filename)
}

func TestGet(t *testing.T) {
	s, dir := newTestStore(t)
	p := writeFile(t, dir, "a.txt", "x", time.Now())

	got, ok := s.Get("a.txt")
	assert.True(t, ok)
	assert.Equal(t, p, got)

	for _, name := range []string{"missing.txt", "../a.txt", "sub/a.txt", "..", "", `..\a.txt`} {
		_, ok := s.Get(name)
		assert.False(t, ok, name)
	}
}

func TestDelete(t *testing.T) {
	s, dir := newTestStore(t)
	p := writeFile(t, dir, "a.txt", "x", time.Now())

	ok, err := s.Delete(p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCleanupDeletesStrictlyOlderFiles(t *testing.T) {
	s, dir := newTestStore(t)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	cutoff := now.Add(-7 * 24 * time.Hour)
	writeFile(t, dir, "ancient.txt", "x", cutoff.Add(-30*24*time.Hour))
	writeFile(t, dir, "old.pdf", "x", cutoff.Add(-time.Second))
	writeFile(t, dir, "boundary.txt", "x", cutoff)
	writeFile(t, dir, "fresh.json", "x", now.Add(-time.Hour))

	deleted, err := s.Cleanup(7)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	files, err := s.List()
	require.NoError(t, err)
	names := []string{}
	for _, f := range files {
		names = append(names, f.Filename)
	}
	assert.ElementsMatch(t, []string{"boundary.txt", "fresh.json"}, names)
}

func TestCleanupRejectsInvalidDays(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Cleanup(0)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "report.PDF", "hello", time.Now())

	info, err := s.Info("report.PDF")
	require.NoError(t, err)
	assert.Equal(t, "report.PDF", info.Filename)
	assert.Equal(t, int64(5), info.SizeBytes)
	assert.Equal(t, "pdf", info.FileType)
	assert.Equal(t, filepath.Join(dir, "report.PDF"), info.FullPath)
	assert.True(t, info.IsReadable)

	_, err = s.Info("missing.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStats(t *testing.T) {
	s, dir := newTestStore(t)

	empty, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalFiles)
	assert.Empty(t, empty.FileTypes)
	assert.Equal(t, "", empty.OldestFile)

	writeFile(t, dir, "a.txt", "1234", time.Now())
	writeFile(t, dir, "b.txt", "12", time.Now())
	writeFile(t, dir, "c.pdf", "123456", time.Now())
	writeFile(t, dir, "noext", "1", time.Now())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalFiles)
	assert.Equal(t, int64(13), stats.TotalSizeBytes)
	assert.Equal(t, map[string]int{"txt": 2, "pdf": 1}, stats.FileTypes)
	assert.Equal(t, int64(3), stats.AverageSizeBytes)
	assert.NotEmpty(t, stats.OldestFile)
	assert.NotEmpty(t, stats.NewestFile)
}
