package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranscript(t *testing.T) {
	video := VideoReference{VideoID: "abc12345678", URL: "https://youtu.be/abc12345678"}
	snippets := []Snippet{
		{Text: "Hello", Start: 0, Duration: 1.5},
		{Text: " world. ", Start: 1.5, Duration: 2},
		{Text: "Bye", Start: 2.5, Duration: 0.5},
	}

	tr := NewTranscript(video, snippets, "en", true)

	assert.Equal(t, "Hello  world.  Bye", tr.FullText)
	assert.Equal(t, 3, tr.WordCount)
	assert.Equal(t, 3.5, tr.DurationSeconds)
	assert.Equal(t, "en", tr.Language)
	assert.True(t, tr.IsGenerated)
	assert.Equal(t, video, tr.Video)
}

func TestNewTranscriptEmpty(t *testing.T) {
	tr := NewTranscript(VideoReference{VideoID: "abc12345678"}, nil, "en", false)

	assert.Equal(t, "", tr.FullText)
	assert.Equal(t, 0, tr.WordCount)
	assert.Equal(t, 0.0, tr.DurationSeconds)
	assert.NotNil(t, tr.Snippets)
}

func TestDurationUsesLatestEnd(t *testing.T) {
	// Overlapping captions: the longest-running snippet is not the last one.
	snippets := []Snippet{
		{Text: "a", Start: 0, Duration: 10},
		{Text: "b", Start: 2, Duration: 1},
	}
	tr := NewTranscript(VideoReference{}, snippets, "en", false)
	assert.Equal(t, 10.0, tr.DurationSeconds)
}

func TestParseFileFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FileFormat
		wantErr bool
	}{
		{"txt", FileFormatTXT, false},
		{"PDF", FileFormatPDF, false},
		{" json ", FileFormatJSON, false},
		{"both", FileFormatBoth, false},
		{"docx", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFileFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileFormatFiles(t *testing.T) {
	assert.Equal(t, []FileFormat{FileFormatTXT, FileFormatPDF}, FileFormatBoth.Files())
	assert.Equal(t, []FileFormat{FileFormatJSON}, FileFormatJSON.Files())
	assert.Nil(t, FileFormat("docx").Files())
}

func TestTaskStatusProgress(t *testing.T) {
	assert.Equal(t, 0, TaskStatusPending.Progress())
	assert.Equal(t, 50, TaskStatusProcessing.Progress())
	assert.Equal(t, 100, TaskStatusCompleted.Progress())
	assert.Equal(t, 0, TaskStatusFailed.Progress())

	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.False(t, TaskStatusProcessing.IsTerminal())
}

func TestTaskStatusView(t *testing.T) {
	failed := &Task{ID: "t1", Status: TaskStatusFailed, Error: "boom"}
	view := failed.StatusView()
	assert.Equal(t, "boom", view.Message)
	assert.Nil(t, view.Result)

	done := &Task{ID: "t2", Status: TaskStatusCompleted}
	view = done.StatusView()
	assert.Equal(t, 100, view.Progress)
	assert.Same(t, done, view.Result)
}

func TestTaskCloneIsDeep(t *testing.T) {
	now := time.Now()
	secs := 1.5
	orig := &Task{
		ID:                    "t1",
		Options:               TaskOptions{Languages: []string{"en"}},
		Files:                 []ExportedFile{{Filename: "a.txt"}},
		Transcript:            &Transcript{Snippets: []Snippet{{Text: "x"}}},
		CompletedAt:           &now,
		ProcessingTimeSeconds: &secs,
	}

	c := orig.Clone()
	c.Options.Languages[0] = "de"
	c.Files[0].Filename = "b.txt"
	c.Transcript.Snippets[0].Text = "y"
	*c.ProcessingTimeSeconds = 9

	assert.Equal(t, "en", orig.Options.Languages[0])
	assert.Equal(t, "a.txt", orig.Files[0].Filename)
	assert.Equal(t, "x", orig.Transcript.Snippets[0].Text)
	assert.Equal(t, 1.5, *orig.ProcessingTimeSeconds)
}

func TestTaskJSONFieldNames(t *testing.T) {
	task := &Task{ID: "t1", Status: TaskStatusPending, Files: []ExportedFile{}}
	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "t1", raw["task_id"])
	assert.Equal(t, "pending", raw["status"])
	assert.Contains(t, raw, "video_info")
	assert.NotContains(t, raw, "transcript_data")
	assert.NotContains(t, raw, "error_message")
}
