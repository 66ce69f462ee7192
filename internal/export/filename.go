package export

import (
	"strings"
	"time"
)

const (
	maxBaseNameLength = 100
	timestampLayout   = "20060102_150405"
)

var unsafeFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename replaces characters that are unsafe in file names and
// caps the result at 100 characters.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.Replace(name)
	if r := []rune(name); len(r) > maxBaseNameLength {
		name = string(r[:maxBaseNameLength])
	}
	return strings.TrimSpace(name)
}

// baseName returns the timestamped name shared by every file of one export
func baseName(videoID, customName string, now time.Time) string {
	base := SanitizeFilename(customName)
	if base == "" {
		base = videoID + "_transcript"
	}
	return base + "_" + now.UTC().Format(timestampLayout)
}
