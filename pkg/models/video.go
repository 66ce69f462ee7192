package models

// VideoReference identifies a YouTube video by its 11-character id
type VideoReference struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
}

// CaptionTrack describes a caption track available for a video
type CaptionTrack struct {
	Language       string `json:"language"`
	LanguageCode   string `json:"language_code"`
	IsGenerated    bool   `json:"is_generated"`
	IsTranslatable bool   `json:"is_translatable"`
}

// VideoTranscriptInfo lists the caption tracks available for a video
type VideoTranscriptInfo struct {
	VideoID              string         `json:"video_id"`
	AvailableTranscripts []CaptionTrack `json:"available_transcripts"`
}
