package task

import (
	"context"
	"errors"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

var (
	// ErrTaskNotFound is returned when no task exists for an id
	ErrTaskNotFound = errors.New("task not found")
	// ErrAlreadyProcessed is returned when processing is requested for a task that left pending
	ErrAlreadyProcessed = errors.New("task already processed")
)

// Store persists task records. Implementations must be safe for concurrent use
// and must return copies so callers cannot mutate stored state.
type Store interface {
	Create(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	// List returns up to limit tasks, newest created first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	// Delete removes the task and returns the removed record
	Delete(ctx context.Context, id string) (*models.Task, error)
	// Claim atomically moves a pending task to processing and returns it.
	// It fails with ErrAlreadyProcessed when the task is not pending.
	Claim(ctx context.Context, id string) (*models.Task, error)
}
