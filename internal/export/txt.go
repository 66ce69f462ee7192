package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const documentTitle = "YouTube Video Transcript"

func renderTXT(tr *models.Transcript, now time.Time) []byte {
	var b strings.Builder
	b.WriteString(documentTitle + "\n")
	fmt.Fprintf(&b, "Video ID: %s\n", tr.Video.VideoID)
	fmt.Fprintf(&b, "URL: %s\n", tr.Video.URL)
	if tr.Video.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", tr.Video.Title)
	}
	fmt.Fprintf(&b, "Language: %s\n", tr.Language)
	fmt.Fprintf(&b, "Auto-generated: %s\n", yesNo(tr.IsGenerated))
	fmt.Fprintf(&b, "Word Count: %d\n", tr.WordCount)
	fmt.Fprintf(&b, "Duration: %.2f seconds\n", tr.DurationSeconds)
	fmt.Fprintf(&b, "Generated on: %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString("\n" + strings.Repeat("=", 80) + "\n\n")
	b.WriteString(tr.FullText)
	return []byte(b.String())
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
