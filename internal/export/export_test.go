package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestExporter(t *testing.T, cfg Config) *Exporter {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	e, err := New(cfg, logging.Nop())
	require.NoError(t, err)
	e.now = func() time.Time { return fixedNow }
	return e
}

func sampleTranscript() *models.Transcript {
	return &models.Transcript{
		Video:           models.VideoReference{VideoID: "abc12345678", URL: "https://youtu.be/abc12345678"},
		Snippets:        []models.Snippet{{Text: "Hello world.", Start: 0, Duration: 1.5}},
		FullText:        "Hello world.",
		Language:        "en",
		IsGenerated:     false,
		WordCount:       2,
		DurationSeconds: 1.5,
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExportBoth(t *testing.T) {
	e := newTestExporter(t, Config{DownloadPrefix: "/api/v1"})

	files, err := e.Export(context.Background(), sampleTranscript(), models.FileFormatBoth, "")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "abc12345678_transcript_20240309_140507.txt", files[0].Filename)
	assert.Equal(t, models.FileFormatTXT, files[0].Format)
	assert.Equal(t, "abc12345678_transcript_20240309_140507.pdf", files[1].Filename)
	assert.Equal(t, models.FileFormatPDF, files[1].Format)
	assert.Equal(t, "/api/v1/files/"+files[0].Filename, files[0].DownloadURL)

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), f.SizeBytes)
		assert.Contains(t, string(data), "abc12345678", "%s should mention the video id", f.Filename)
	}

	pdf, err := os.ReadFile(files[1].Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
}

func TestExportSingleFormats(t *testing.T) {
	for _, format := range []models.FileFormat{models.FileFormatTXT, models.FileFormatPDF, models.FileFormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			e := newTestExporter(t, Config{})
			files, err := e.Export(context.Background(), sampleTranscript(), format, "")
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, format, files[0].Format)
			assert.True(t, strings.HasSuffix(files[0].Filename, "."+string(format)))
		})
	}
}

func TestExportTXTLayout(t *testing.T) {
	e := newTestExporter(t, Config{})

	files, err := e.Export(context.Background(), sampleTranscript(), models.FileFormatTXT, "")
	require.NoError(t, err)

	data, err := os.ReadFile(files[0].Path)
	require.NoError(t, err)
	want := "YouTube Video Transcript\n" +
		"Video ID: abc12345678\n" +
		"URL: https://youtu.be/abc12345678\n" +
		"Language: en\n" +
		"Auto-generated: No\n" +
		"Word Count: 2\n" +
		"Duration: 1.50 seconds\n" +
		"Generated on: 2024-03-09T14:05:07Z\n" +
		"\n" + strings.Repeat("=", 80) + "\n\n" +
		"Hello world."
	assert.Equal(t, want, string(data))
}

func TestExportJSONRoundTrip(t *testing.T) {
	e := newTestExporter(t, Config{})
	tr := models.NewTranscript(
		models.VideoReference{VideoID: "abc12345678", URL: "https://youtu.be/abc12345678", Title: "Demo"},
		[]models.Snippet{
			{Text: "first line", Start: 0, Duration: 2},
			{Text: "second line", Start: 2, Duration: 1.25},
		},
		"de", true,
	)

	files, err := e.Export(context.Background(), tr, models.FileFormatJSON, "")
	require.NoError(t, err)

	data, err := os.ReadFile(files[0].Path)
	require.NoError(t, err)

	got, meta, err := DecodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, tr.Video, got.Video)
	assert.Equal(t, tr.Language, got.Language)
	assert.Equal(t, tr.WordCount, got.WordCount)
	assert.Equal(t, tr.Snippets, got.Snippets)
	assert.True(t, got.IsGenerated)
	assert.Equal(t, ContentHash("first line second line"), meta.ContentHash)
	assert.True(t, meta.GeneratedAt.Equal(fixedNow))
}

func TestExportCustomFilename(t *testing.T) {
	e := newTestExporter(t, Config{})

	files, err := e.Export(context.Background(), sampleTranscript(), models.FileFormatTXT, ` my/talk:"notes"? `)
	require.NoError(t, err)
	assert.Equal(t, "my_talk__notes___20240309_140507.txt", files[0].Filename)
}

func TestExportRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	// TXT succeeds, then the PDF fails loading a missing font.
	e := newTestExporter(t, Config{
		OutputDir: dir,
		PDF:       PDFOptions{FontPath: filepath.Join(dir, "missing.ttf")},
	})

	files, err := e.Export(context.Background(), sampleTranscript(), models.FileFormatBoth, "")
	assert.ErrorIs(t, err, ErrFileProcessing)
	assert.Nil(t, files)
	assert.Empty(t, listDir(t, dir))
}

func TestExportEnforcesMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter(t, Config{OutputDir: dir, MaxFileSize: 10})

	_, err := e.Export(context.Background(), sampleTranscript(), models.FileFormatTXT, "")
	assert.ErrorIs(t, err, ErrFileProcessing)
	assert.Empty(t, listDir(t, dir))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	e := newTestExporter(t, Config{})
	_, err := e.Export(context.Background(), sampleTranscript(), models.FileFormat("docx"), "")
	assert.ErrorIs(t, err, ErrFileProcessing)
}
