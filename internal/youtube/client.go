package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// maxTimedTextBytes bounds a single caption document download
const maxTimedTextBytes = 8 * 1024 * 1024

// VideoSource loads video metadata including the caption track list
type VideoSource interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
}

// Config holds fetcher settings
type Config struct {
	DefaultLanguages    []string
	MaxTranscriptLength int
	Timeout             time.Duration
}

// Client fetches caption tracks and transcripts for YouTube videos
type Client struct {
	source     VideoSource
	httpClient *http.Client
	config     Config
	logger     *logging.Logger
}

// NewClient creates a client backed by the kkdai/youtube library
func NewClient(cfg Config, logger *logging.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return NewClientWithSource(&youtube.Client{HTTPClient: httpClient}, httpClient, cfg, logger)
}

// NewClientWithSource creates a client with an explicit video source
func NewClientWithSource(source VideoSource, httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if len(cfg.DefaultLanguages) == 0 {
		cfg.DefaultLanguages = models.DefaultLanguages
	}
	return &Client{
		source:     source,
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}
}

// ListTracks returns every caption track available for the video
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]models.CaptionTrack, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	video, err := c.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return toCaptionTracks(video.CaptionTracks), nil
}

// Fetch downloads the best matching caption track and builds a transcript.
// An empty language list falls back to the configured defaults.
func (c *Client) Fetch(ctx context.Context, ref models.VideoReference, languages []string, preserveFormatting bool) (*models.Transcript, error) {
	span, ctx := tracing.StartSpan(ctx, "youtube.fetch")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "video_id", ref.VideoID)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	transcript, err := c.fetch(ctx, ref, languages, preserveFormatting)
	metrics.RecordFetch(fetchResult(err), time.Since(start).Seconds())
	if err != nil {
		tracing.LogError(span, err)
		c.logger.WithVideoID(ref.VideoID).WithError(err).Warn("Transcript fetch failed")
		return nil, err
	}

	tracing.SetTag(span, "language", transcript.Language)
	c.logger.WithVideoID(ref.VideoID).WithFields(map[string]interface{}{
		"language":   transcript.Language,
		"snippets":   len(transcript.Snippets),
		"word_count": transcript.WordCount,
	}).Debug("Transcript fetched")
	return transcript, nil
}

func (c *Client) fetch(ctx context.Context, ref models.VideoReference, languages []string, preserveFormatting bool) (*models.Transcript, error) {
	if len(languages) == 0 {
		languages = c.config.DefaultLanguages
	}

	video, err := c.loadVideo(ctx, ref.VideoID)
	if err != nil {
		return nil, err
	}
	if len(video.CaptionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	track, ok := selectTrack(video.CaptionTracks, languages)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoTranscriptFound, languages)
	}

	body, err := c.download(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	snippets, err := parseTimedText(body, preserveFormatting)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	if ref.Title == "" {
		ref.Title = video.Title
	}
	transcript := models.NewTranscript(ref, snippets, track.LanguageCode, isGenerated(track))

	if limit := c.config.MaxTranscriptLength; limit > 0 && len(transcript.FullText) > limit {
		return nil, fmt.Errorf("%w: %d characters, limit %d", ErrTranscriptTooLong, len(transcript.FullText), limit)
	}
	return transcript, nil
}

func (c *Client) loadVideo(ctx context.Context, videoID string) (*youtube.Video, error) {
	video, err := c.source.GetVideoContext(ctx, videoID)
	if err != nil {
		if isUnavailable(err) {
			return nil, fmt.Errorf("%w: %v", ErrVideoNotFound, err)
		}
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	return video, nil
}

func (c *Client) download(ctx context.Context, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid caption url: %w", err)
	}
	// The classic <transcript><text> layout is only served without an explicit fmt.
	if q := u.Query(); q.Has("fmt") {
		q.Del("fmt")
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption request returned status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

func isUnavailable(err error) bool {
	var status youtube.ErrPlayabiltyStatus
	return errors.Is(err, youtube.ErrVideoPrivate) ||
		errors.Is(err, youtube.ErrLoginRequired) ||
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID) ||
		errors.As(err, &status)
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrVideoNotFound):
		return "video_not_found"
	case errors.Is(err, ErrTranscriptsDisabled):
		return "disabled"
	case errors.Is(err, ErrNoTranscriptFound):
		return "no_transcript"
	case errors.Is(err, ErrTranscriptTooLong):
		return "too_long"
	default:
		return "error"
	}
}
