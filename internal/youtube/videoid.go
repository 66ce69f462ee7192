package youtube

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var videoHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"www.youtu.be":    true,
}

// ParseVideoURL validates a YouTube URL and returns a reference to the video.
// Recognized shapes are youtu.be/<id>, /watch?v=<id> and /embed/<id>.
func ParseVideoURL(raw string) (models.VideoReference, error) {
	id, err := ExtractVideoID(raw)
	if err != nil {
		return models.VideoReference{}, err
	}
	return models.VideoReference{VideoID: id, URL: strings.TrimSpace(raw)}, nil
}

// ExtractVideoID returns the 11 character video id embedded in raw
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	if !videoHosts[host] {
		return "", ErrInvalidURL
	}

	var candidate string
	switch {
	case strings.HasSuffix(host, "youtu.be"):
		candidate = firstSegment(u.Path)
	case u.Path == "/watch":
		candidate = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/embed/"):
		candidate = firstSegment(strings.TrimPrefix(u.Path, "/embed"))
	default:
		return "", ErrInvalidURL
	}

	candidate = stripSuffix(candidate)
	if !videoIDPattern.MatchString(candidate) {
		return "", ErrInvalidURL
	}
	return candidate, nil
}

// IsValidVideoID reports whether id has the shape of a YouTube video id
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[:i]
	}
	return path
}

// stripSuffix drops anything after a stray '?' or '&' that survived URL parsing
func stripSuffix(s string) string {
	if i := strings.IndexAny(s, "?&"); i >= 0 {
		return s[:i]
	}
	return s
}
