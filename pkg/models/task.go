package models

import "time"

// TaskStatus is the lifecycle state of a transcript task
type TaskStatus string

// TaskStatus constants
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Progress returns the coarse completion percentage reported for a status
func (s TaskStatus) Progress() int {
	switch s {
	case TaskStatusProcessing:
		return 50
	case TaskStatusCompleted:
		return 100
	default:
		return 0
	}
}

// DefaultLanguages is used when a request names no languages
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

// TaskOptions holds what to fetch and how to export it
type TaskOptions struct {
	Format             FileFormat `json:"format"`
	Languages          []string   `json:"languages"`
	PreserveFormatting bool       `json:"preserve_formatting"`
	CustomFilename     string     `json:"custom_filename,omitempty"`
}

// Task is one transcript extraction request tracked through its lifecycle
type Task struct {
	ID                    string         `json:"task_id"`
	Status                TaskStatus     `json:"status"`
	Video                 VideoReference `json:"video_info"`
	Options               TaskOptions    `json:"options"`
	Transcript            *Transcript    `json:"transcript_data,omitempty"`
	Files                 []ExportedFile `json:"files"`
	Error                 string         `json:"error_message,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	CompletedAt           *time.Time     `json:"completed_at,omitempty"`
	ProcessingTimeSeconds *float64       `json:"processing_time_seconds,omitempty"`
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Options.Languages = append([]string(nil), t.Options.Languages...)
	c.Files = append([]ExportedFile{}, t.Files...)
	if t.Transcript != nil {
		tr := *t.Transcript
		tr.Snippets = append([]Snippet{}, t.Transcript.Snippets...)
		c.Transcript = &tr
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.ProcessingTimeSeconds != nil {
		secs := *t.ProcessingTimeSeconds
		c.ProcessingTimeSeconds = &secs
	}
	return &c
}

// TaskStatusView is the polling view of a task
type TaskStatusView struct {
	TaskID   string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
	Result   *Task      `json:"result,omitempty"`
}

// StatusView builds the polling view of the task
func (t *Task) StatusView() TaskStatusView {
	view := TaskStatusView{
		TaskID:   t.ID,
		Status:   t.Status,
		Progress: t.Status.Progress(),
	}
	switch t.Status {
	case TaskStatusFailed:
		view.Message = t.Error
	case TaskStatusCompleted:
		view.Result = t
	}
	return view
}

// TaskMessage is the queue payload for a task awaiting processing
type TaskMessage struct {
	TaskID string `json:"task_id"`
}
