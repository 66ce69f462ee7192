package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// Fetcher retrieves the transcript of a video
type Fetcher interface {
	Fetch(ctx context.Context, ref models.VideoReference, languages []string, preserveFormatting bool) (*models.Transcript, error)
}

// Exporter writes a transcript to files
type Exporter interface {
	Export(ctx context.Context, tr *models.Transcript, format models.FileFormat, customName string) ([]models.ExportedFile, error)
}

// FileRemover deletes exported files
type FileRemover interface {
	Delete(path string) (bool, error)
}

// Archiver mirrors exported files to secondary storage
type Archiver interface {
	Archive(ctx context.Context, taskID string, files []models.ExportedFile) ([]models.ExportedFile, error)
	Remove(ctx context.Context, objectKey string) error
}

// Dispatcher hands a created task to something that will process it later
type Dispatcher interface {
	Dispatch(ctx context.Context, taskID string) error
}

const defaultSaveRetryDelay = 500 * time.Millisecond

// Option configures a Registry
type Option func(*Registry)

// WithArchiver mirrors every completed export through a
func WithArchiver(a Archiver) Option {
	return func(r *Registry) { r.archiver = a }
}

// WithProcessTimeout bounds fetch plus export for a single task
func WithProcessTimeout(d time.Duration) Option {
	return func(r *Registry) { r.processTimeout = d }
}

// WithSaveRetryDelay sets the pause before a failed save is retried
func WithSaveRetryDelay(d time.Duration) Option {
	return func(r *Registry) { r.saveRetryDelay = d }
}

// WithDefaultLanguages sets the languages used when a task names none
func WithDefaultLanguages(langs []string) Option {
	return func(r *Registry) {
		if len(langs) > 0 {
			r.defaultLanguages = langs
		}
	}
}

// Registry owns transcript tasks and drives them through
// pending -> processing -> completed | failed.
type Registry struct {
	store            Store
	fetcher          Fetcher
	exporter         Exporter
	files            FileRemover
	archiver         Archiver
	logger           *logging.Logger
	processTimeout   time.Duration
	defaultLanguages []string
	saveRetryDelay   time.Duration
	now              func() time.Time
}

// NewRegistry creates a registry over the given store and collaborators
func NewRegistry(store Store, fetcher Fetcher, exporter Exporter, files FileRemover, logger *logging.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:            store,
		fetcher:          fetcher,
		exporter:         exporter,
		files:            files,
		logger:           logger,
		defaultLanguages: models.DefaultLanguages,
		saveRetryDelay:   defaultSaveRetryDelay,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create records a new pending task. Duplicate submissions for the same video
// produce independent tasks.
func (r *Registry) Create(ctx context.Context, ref models.VideoReference, opts models.TaskOptions) (*models.Task, error) {
	if opts.Format == "" {
		opts.Format = models.FileFormatBoth
	}
	if len(opts.Languages) == 0 {
		opts.Languages = append([]string(nil), r.defaultLanguages...)
	}

	t := &models.Task{
		ID:        uuid.New().String(),
		Status:    models.TaskStatusPending,
		Video:     ref,
		Options:   opts,
		Files:     []models.ExportedFile{},
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	metrics.RecordTaskCreated()
	r.logger.LogTaskEvent(t.ID, "created", string(t.Status), map[string]interface{}{
		"video_id": ref.VideoID,
		"format":   string(opts.Format),
	})
	return t, nil
}

// Process runs the single processing attempt of a task. It returns
// ErrTaskNotFound or ErrAlreadyProcessed without touching the task; any
// failure after that is recorded on the task, which is returned as failed.
func (r *Registry) Process(ctx context.Context, id string) (*models.Task, error) {
	span, ctx := tracing.StartSpan(ctx, "task.process")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "task_id", id)

	t, err := r.store.Claim(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.RecordTaskStarted()
	r.logger.LogTaskEvent(t.ID, "started", string(t.Status), nil)
	start := r.now()

	runCtx, cancel := r.runContext(ctx)
	transcript, files, runErr := r.run(runCtx, t)
	cancel()

	elapsed := r.now().Sub(start).Seconds()
	completedAt := r.now().UTC()
	t.CompletedAt = &completedAt
	t.ProcessingTimeSeconds = &elapsed

	if runErr != nil {
		t.Status = models.TaskStatusFailed
		t.Error = runErr.Error()
		t.Files = []models.ExportedFile{}
		t.Transcript = nil
		tracing.LogError(span, runErr)
	} else {
		t.Status = models.TaskStatusCompleted
		t.Transcript = transcript
		t.Files = files
	}

	// The record is saved even if the caller went away mid-processing.
	saveCtx := context.WithoutCancel(ctx)
	if err := r.save(saveCtx, t); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			// Deleted while processing; nothing references the new files.
			r.removeFiles(saveCtx, t.ID, files)
		}
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	metrics.RecordTaskCompleted(string(t.Status), elapsed)
	details := map[string]interface{}{"processing_time_seconds": elapsed}
	if runErr != nil {
		details["error"] = runErr.Error()
	} else {
		details["files"] = len(files)
	}
	r.logger.LogTaskEvent(t.ID, "finished", string(t.Status), details)
	return t, nil
}

// save stores a finished task, trying once more after saveRetryDelay
func (r *Registry) save(ctx context.Context, t *models.Task) error {
	err := r.store.Update(ctx, t)
	if err == nil || errors.Is(err, ErrTaskNotFound) {
		return err
	}

	log := r.logger.WithTaskID(t.ID)
	log.WithError(err).Warn("Failed to save task, retrying")
	time.Sleep(r.saveRetryDelay)

	err = r.store.Update(ctx, t)
	if err != nil && !errors.Is(err, ErrTaskNotFound) {
		metrics.RecordError("task", "save")
		log.WithError(err).Errorf("Task %s left in processing state", t.ID)
	}
	return err
}

func (r *Registry) run(ctx context.Context, t *models.Task) (*models.Transcript, []models.ExportedFile, error) {
	transcript, err := r.fetcher.Fetch(ctx, t.Video, t.Options.Languages, t.Options.PreserveFormatting)
	if err != nil {
		return nil, nil, err
	}
	// Metadata gathered during the fetch (the title) belongs on the task too.
	t.Video = transcript.Video

	files, err := r.exporter.Export(ctx, transcript, t.Options.Format, t.Options.CustomFilename)
	if err != nil {
		return nil, nil, err
	}

	if r.archiver != nil {
		archived, err := r.archiver.Archive(ctx, t.ID, files)
		if err != nil {
			// Local files are the source of truth; a failed mirror does not fail the task.
			r.logger.WithTaskID(t.ID).WithError(err).Warn("Failed to mirror exported files")
		} else {
			files = archived
		}
	}
	return transcript, files, nil
}

func (r *Registry) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.processTimeout > 0 {
		return context.WithTimeout(ctx, r.processTimeout)
	}
	return context.WithCancel(ctx)
}

// Get returns a task by id
func (r *Registry) Get(ctx context.Context, id string) (*models.Task, error) {
	return r.store.Get(ctx, id)
}

// List returns up to limit tasks, newest first
func (r *Registry) List(ctx context.Context, limit int) ([]*models.Task, error) {
	return r.store.List(ctx, limit)
}

// Delete removes a task and makes a best effort to delete its files.
// It reports false when the task does not exist.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	t, err := r.store.Delete(ctx, id)
	if errors.Is(err, ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	r.removeFiles(ctx, id, t.Files)
	r.logger.LogTaskEvent(id, "deleted", string(t.Status), map[string]interface{}{"files": len(t.Files)})
	return true, nil
}

// removeFiles deletes exported files and their mirrored objects, logging failures
func (r *Registry) removeFiles(ctx context.Context, id string, files []models.ExportedFile) {
	log := r.logger.WithTaskID(id)
	for _, f := range files {
		if _, err := r.files.Delete(f.Path); err != nil {
			log.WithError(err).Warnf("Failed to delete file %s", f.Filename)
		}
		if r.archiver != nil && f.ObjectKey != "" {
			if err := r.archiver.Remove(ctx, f.ObjectKey); err != nil {
				log.WithError(err).Warnf("Failed to delete mirrored object %s", f.ObjectKey)
			}
		}
	}
}
