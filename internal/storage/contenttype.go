package storage

import (
	"path/filepath"
	"strings"
)

// ContentType returns the media type served for an exported file
func ContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
