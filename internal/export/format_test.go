package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}
}

func TestBaseName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "abc12345678_transcript_20240102_020405", baseName("abc12345678", "", now))
	assert.Equal(t, "talk_20240102_020405", baseName("abc12345678", "talk", now))
	assert.Equal(t, "abc12345678_transcript_20240102_020405", baseName("abc12345678", "   ", now))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"One. Two. Three", []string{"One.", "Two.", "Three"}},
		{"Ends with period.", []string{"Ends with period."}},
		{"Dr. Who arrives. ", []string{"Dr.", "Who arrives."}},
		{"", []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitSentences(tt.in), tt.in)
	}
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "0", formatThousands(0))
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "1,000", formatThousands(1000))
	assert.Equal(t, "12,345,678", formatThousands(12345678))
}
