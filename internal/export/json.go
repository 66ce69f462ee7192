package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// Document is the layout of a JSON export
type Document struct {
	VideoInfo  models.VideoReference `json:"video_info"`
	Transcript DocumentTranscript    `json:"transcript"`
	Metadata   DocumentMetadata      `json:"metadata"`
}

// DocumentTranscript is the transcript section of a JSON export
type DocumentTranscript struct {
	Language        string           `json:"language"`
	IsGenerated     bool             `json:"is_generated"`
	WordCount       int              `json:"word_count"`
	DurationSeconds float64          `json:"duration_seconds"`
	FullText        string           `json:"full_text"`
	Snippets        []models.Snippet `json:"snippets"`
}

// DocumentMetadata is the metadata section of a JSON export
type DocumentMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	ContentHash string    `json:"content_hash"`
}

// ContentHash is the hex SHA-256 of the transcript text, used as a fingerprint
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func renderJSON(tr *models.Transcript, now time.Time) ([]byte, error) {
	doc := Document{
		VideoInfo: tr.Video,
		Transcript: DocumentTranscript{
			Language:        tr.Language,
			IsGenerated:     tr.IsGenerated,
			WordCount:       tr.WordCount,
			DurationSeconds: tr.DurationSeconds,
			FullText:        tr.FullText,
			Snippets:        tr.Snippets,
		},
		Metadata: DocumentMetadata{
			GeneratedAt: now.UTC(),
			ContentHash: ContentHash(tr.FullText),
		},
	}
	if doc.Transcript.Snippets == nil {
		doc.Transcript.Snippets = []models.Snippet{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a JSON export back into a transcript
func DecodeDocument(data []byte) (*models.Transcript, *DocumentMetadata, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode transcript document: %w", err)
	}
	tr := &models.Transcript{
		Video:           doc.VideoInfo,
		Snippets:        doc.Transcript.Snippets,
		FullText:        doc.Transcript.FullText,
		Language:        doc.Transcript.Language,
		IsGenerated:     doc.Transcript.IsGenerated,
		WordCount:       doc.Transcript.WordCount,
		DurationSeconds: doc.Transcript.DurationSeconds,
	}
	return tr, &doc.Metadata, nil
}
