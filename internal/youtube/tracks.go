package youtube

import (
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const generatedKind = "asr"

// selectTrack picks the caption track for the first language that has one.
// For each language a manual track wins over an auto-generated one. If no
// exact code matches, a second pass matches on the base language so "en"
// finds "en-US" and vice versa.
func selectTrack(tracks []youtube.CaptionTrack, languages []string) (youtube.CaptionTrack, bool) {
	match := func(same func(want, have string) bool) (youtube.CaptionTrack, bool) {
		for _, lang := range languages {
			for _, generated := range []bool{false, true} {
				for _, t := range tracks {
					if isGenerated(t) == generated && same(lang, t.LanguageCode) {
						return t, true
					}
				}
			}
		}
		return youtube.CaptionTrack{}, false
	}

	if t, ok := match(strings.EqualFold); ok {
		return t, true
	}
	return match(func(want, have string) bool {
		return strings.EqualFold(baseLanguage(want), baseLanguage(have))
	})
}

func isGenerated(t youtube.CaptionTrack) bool {
	return t.Kind == generatedKind
}

func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		return code[:i]
	}
	return code
}

func toCaptionTracks(tracks []youtube.CaptionTrack) []models.CaptionTrack {
	out := make([]models.CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		name := t.Name.SimpleText
		if name == "" {
			name = t.LanguageCode
		}
		out = append(out, models.CaptionTrack{
			Language:       name,
			LanguageCode:   t.LanguageCode,
			IsGenerated:    isGenerated(t),
			IsTranslatable: t.IsTranslatable,
		})
	}
	return out
}
