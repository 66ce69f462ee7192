package models

import "strings"

// Snippet is one timed caption fragment
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the time in seconds at which the snippet stops being shown
func (s Snippet) End() float64 {
	return s.Start + s.Duration
}

// Transcript holds the fetched captions of a video and the figures derived from them
type Transcript struct {
	Video           VideoReference `json:"video_info"`
	Snippets        []Snippet      `json:"snippets"`
	FullText        string         `json:"full_text"`
	Language        string         `json:"language"`
	IsGenerated     bool           `json:"is_generated"`
	WordCount       int            `json:"word_count"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// NewTranscript builds a transcript from ordered snippets, computing the
// full text, word count and total duration.
func NewTranscript(video VideoReference, snippets []Snippet, language string, generated bool) *Transcript {
	if snippets == nil {
		snippets = []Snippet{}
	}

	var sb strings.Builder
	var duration float64
	for _, s := range snippets {
		sb.WriteString(s.Text)
		sb.WriteByte(' ')
		if end := s.End(); end > duration {
			duration = end
		}
	}
	fullText := strings.TrimSpace(sb.String())

	return &Transcript{
		Video:           video,
		Snippets:        snippets,
		FullText:        fullText,
		Language:        language,
		IsGenerated:     generated,
		WordCount:       len(strings.Fields(fullText)),
		DurationSeconds: duration,
	}
}
