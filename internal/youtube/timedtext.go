package youtube

import (
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

var (
	tagPattern = regexp.MustCompile(`</?([A-Za-z][A-Za-z0-9]*)[^>]*>`)

	formattingTags = map[string]bool{
		"strong": true,
		"em":     true,
		"b":      true,
		"i":      true,
		"mark":   true,
		"small":  true,
		"del":    true,
		"ins":    true,
		"sub":    true,
		"sup":    true,
	}
)

// parseTimedText decodes a timedtext XML document into snippets.
// Lines whose cleaned text is empty are skipped.
func parseTimedText(body []byte, preserveFormatting bool) ([]models.Snippet, error) {
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	snippets := make([]models.Snippet, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		text := cleanText(line.Text, preserveFormatting)
		if text == "" {
			continue
		}
		snippets = append(snippets, models.Snippet{
			Text:     text,
			Start:    parseSeconds(line.Start),
			Duration: parseSeconds(line.Dur),
		})
	}
	return snippets, nil
}

// cleanText unescapes HTML entities and strips markup. With preserveFormatting
// only the basic inline formatting tags survive.
func cleanText(s string, preserveFormatting bool) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		if preserveFormatting {
			name := strings.ToLower(tagPattern.FindStringSubmatch(tag)[1])
			if formattingTags[name] {
				return tag
			}
		}
		return ""
	})
	return strings.TrimSpace(s)
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
