package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// ErrFileNotFound is returned when a file is not present in the output directory
var ErrFileNotFound = errors.New("file not found")

// FileStore manages exported files in a single flat output directory
type FileStore struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the output directory
func (s *FileStore) Dir() string {
	return s.dir
}

// List returns the regular files in the output directory, newest modification first
func (s *FileStore) List() ([]models.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	files := make([]models.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		files = append(files, toFileInfo(info))
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].ModifiedAt.After(files[j].ModifiedAt)
		}
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// Get resolves filename inside the output directory. Names that are not a
// plain file name (path separators, "..") are never resolved.
func (s *FileStore) Get(filename string) (string, bool) {
	if !isPlainName(filename) {
		return "", false
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// Delete removes the file at path. It reports false if the file did not exist.
func (s *FileStore) Delete(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		s.logger.LogFileOperation("delete", filepath.Base(path), info.Size(), err)
		return false, fmt.Errorf("failed to delete %s: %w", filepath.Base(path), err)
	}
	s.logger.LogFileOperation("delete", filepath.Base(path), info.Size(), nil)
	return true, nil
}

// Cleanup deletes every file whose modification time is strictly older than
// daysOld days. Individual failures are logged and skipped; the returned
// count only includes files actually removed.
func (s *FileStore) Cleanup(daysOld int) (int, error) {
	if daysOld < 1 {
		return 0, fmt.Errorf("days_old must be at least 1, got %d", daysOld)
	}

	cutoff := s.now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range files {
		if !f.ModifiedAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, f.Filename)
		if err := os.Remove(path); err != nil {
			s.logger.LogFileOperation("cleanup", f.Filename, f.SizeBytes, err)
			continue
		}
		s.logger.LogFileOperation("cleanup", f.Filename, f.SizeBytes, nil)
		deleted++
	}

	metrics.RecordCleanup(deleted)
	s.logger.WithFields(map[string]interface{}{
		"deleted":  deleted,
		"days_old": daysOld,
	}).Info("Cleaned up old files")
	return deleted, nil
}

// Info returns details about a single file
func (s *FileStore) Info(filename string) (*models.FileDetails, error) {
	path, ok := s.Get(filename)
	if !ok {
		return nil, ErrFileNotFound
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", filename, err)
	}

	return &models.FileDetails{
		FileInfo:   toFileInfo(info),
		SizeMB:     bytesToMB(info.Size()),
		FileType:   fileType(filename),
		FullPath:   path,
		IsReadable: canOpen(path, os.O_RDONLY),
		IsWritable: canOpen(path, os.O_WRONLY),
	}, nil
}

// Stats summarizes the files in the output directory
func (s *FileStore) Stats() (*models.FileStats, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &models.FileStats{FileTypes: map[string]int{}}
	if len(files) == 0 {
		return stats, nil
	}

	var oldest, newest models.FileInfo
	for i, f := range files {
		stats.TotalSizeBytes += f.SizeBytes
		if ext := fileType(f.Filename); ext != "" {
			stats.FileTypes[ext]++
		}
		if i == 0 || f.CreatedAt.Before(oldest.CreatedAt) {
			oldest = f
		}
		if i == 0 || f.CreatedAt.After(newest.CreatedAt) {
			newest = f
		}
	}

	stats.TotalFiles = len(files)
	stats.TotalSizeMB = bytesToMB(stats.TotalSizeBytes)
	stats.AverageSizeBytes = int64(math.Round(float64(stats.TotalSizeBytes) / float64(len(files))))
	stats.OldestFile = oldest.Filename
	stats.NewestFile = newest.Filename
	return stats, nil
}

func toFileInfo(info os.FileInfo) models.FileInfo {
	return models.FileInfo{
		Filename:   info.Name(),
		SizeBytes:  info.Size(),
		CreatedAt:  changeTime(info),
		ModifiedAt: info.ModTime(),
	}
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func fileType(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func bytesToMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

func canOpen(path string, flag int) bool {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
