package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const cleanupLockResource = "file-cleanup"

// Cleaner deletes exported files older than daysOld days
type Cleaner interface {
	Cleanup(daysOld int) (int, error)
}

// Locker serialises cleanup runs across instances sharing an output directory
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// Janitor periodically removes old exported files
type Janitor struct {
	cleaner  Cleaner
	locker   Locker
	interval time.Duration
	daysOld  int
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// JanitorOption configures a Janitor
type JanitorOption func(*Janitor)

// WithLocker makes the janitor skip a run while another instance holds the lock
func WithLocker(l Locker) JanitorOption {
	return func(j *Janitor) {
		j.locker = l
	}
}

// NewJanitor creates a new cleanup janitor
func NewJanitor(cleaner Cleaner, interval time.Duration, daysOld int, logger *logging.Logger, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		cleaner:  cleaner,
		interval: interval,
		daysOld:  daysOld,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start begins the cleanup loop
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		return fmt.Errorf("janitor already started")
	}
	if j.interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	go j.loop(ctx)

	j.logger.Infof("Cleanup janitor started (every %v, files older than %d days)", j.interval, j.daysOld)
	return nil
}

// Stop stops the janitor and waits for an in-flight run
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.Info("Cleanup janitor stopped")
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.WithError(err).Warn("Scheduled cleanup failed")
			}
		}
	}
}

// RunOnce performs a single cleanup pass and returns the number of files removed
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	if j.locker != nil {
		acquired, err := j.locker.AcquireLock(ctx, cleanupLockResource, j.interval)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire cleanup lock: %w", err)
		}
		if !acquired {
			j.logger.Debug("Cleanup skipped, another instance holds the lock")
			return 0, nil
		}
		defer j.locker.ReleaseLock(context.WithoutCancel(ctx), cleanupLockResource)
	}

	deleted, err := j.cleaner.Cleanup(j.daysOld)
	if err != nil {
		return deleted, err
	}
	j.logger.Infof("Scheduled cleanup removed %d files", deleted)
	return deleted, nil
}

// TaskLister lists stored tasks
type TaskLister interface {
	List(ctx context.Context, limit int) ([]*models.Task, error)
}

// ResumePending dispatches every stored task still pending, such as tasks
// accepted before a restart, and returns how many were dispatched
func ResumePending(ctx context.Context, lister TaskLister, dispatcher task.Dispatcher, logger *logging.Logger) (int, error) {
	tasks, err := lister.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending tasks: %w", err)
	}

	dispatched := 0
	for _, t := range tasks {
		if t.Status != models.TaskStatusPending {
			continue
		}
		if err := dispatcher.Dispatch(ctx, t.ID); err != nil {
			logger.WithTaskID(t.ID).WithError(err).Warn("Failed to resume pending task")
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		logger.Infof("Resumed %d pending tasks", dispatched)
	}
	return dispatched, nil
}
