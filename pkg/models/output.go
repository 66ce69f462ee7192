package models

import (
	"fmt"
	"strings"
	"time"
)

// FileFormat is a requested export format
type FileFormat string

// FileFormat constants
const (
	FileFormatTXT  FileFormat = "txt"
	FileFormatPDF  FileFormat = "pdf"
	FileFormatJSON FileFormat = "json"
	// FileFormatBoth produces a text file and a PDF
	FileFormatBoth FileFormat = "both"
)

// ParseFileFormat parses a format name, case-insensitively
func ParseFileFormat(s string) (FileFormat, error) {
	f := FileFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FileFormatTXT, FileFormatPDF, FileFormatJSON, FileFormatBoth:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of txt, pdf, json, both", s)
}

// Files returns the concrete file formats written for f, in write order
func (f FileFormat) Files() []FileFormat {
	switch f {
	case FileFormatBoth:
		return []FileFormat{FileFormatTXT, FileFormatPDF}
	case FileFormatTXT, FileFormatPDF, FileFormatJSON:
		return []FileFormat{f}
	default:
		return nil
	}
}

// ExportedFile is a file produced by the exporter
type ExportedFile struct {
	Filename    string     `json:"filename"`
	Format      FileFormat `json:"format"`
	SizeBytes   int64      `json:"size_bytes"`
	Path        string     `json:"file_path"`
	DownloadURL string     `json:"download_url,omitempty"`
	ObjectKey   string     `json:"object_key,omitempty"`
}

// FileInfo describes a file in the output directory
type FileInfo struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FileDetails is FileInfo plus access and type details
type FileDetails struct {
	FileInfo
	SizeMB     float64 `json:"size_mb"`
	FileType   string  `json:"file_type"`
	FullPath   string  `json:"full_path"`
	IsReadable bool    `json:"is_readable"`
	IsWritable bool    `json:"is_writable"`
}

// FileStats summarizes the output directory
type FileStats struct {
	TotalFiles       int            `json:"total_files"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	TotalSizeMB      float64        `json:"total_size_mb"`
	FileTypes        map[string]int `json:"file_types"`
	AverageSizeBytes int64          `json:"average_size_bytes"`
	OldestFile       string         `json:"oldest_file,omitempty"`
	NewestFile       string         `json:"newest_file,omitempty"`
}
