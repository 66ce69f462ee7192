package youtube

import "errors"

var (
	// ErrInvalidURL is returned when a URL is not a recognized YouTube video URL
	ErrInvalidURL = errors.New("invalid YouTube URL")
	// ErrVideoNotFound is returned when the video does not exist or is not playable
	ErrVideoNotFound = errors.New("video not found or unavailable")
	// ErrTranscriptsDisabled is returned when the video has no caption tracks at all
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscriptFound is returned when no caption track matches the requested languages
	ErrNoTranscriptFound = errors.New("no transcript found for the requested languages")
	// ErrTranscriptTooLong is returned when the transcript text exceeds the configured limit
	ErrTranscriptTooLong = errors.New("transcript exceeds maximum length")
)
