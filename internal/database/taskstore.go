package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcript_tasks (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	video_id   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transcript_tasks_created_at ON transcript_tasks (created_at DESC, id DESC);
`

// TaskStore persists tasks in PostgreSQL. The full record lives in a JSONB
// payload; status and created_at are mirrored into columns for claiming
// and ordering.
type TaskStore struct {
	db     *DB
	logger *logging.Logger
}

// NewTaskStore creates a PostgreSQL backed task store
func NewTaskStore(db *DB, logger *logging.Logger) *TaskStore {
	return &TaskStore{db: db, logger: logger}
}

var _ task.Store = (*TaskStore)(nil)

// EnsureSchema creates the tasks table if it does not exist
func (s *TaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *TaskStore) Create(ctx context.Context, t *models.Task) (err error) {
	defer s.observe("create_task", time.Now(), &err)

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	query := `
		INSERT INTO transcript_tasks (id, status, video_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err = s.db.Pool.Exec(ctx, query, t.ID, string(t.Status), t.Video.VideoID, payload, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (t *models.Task, err error) {
	defer s.observe("get_task", time.Now(), &err)

	var payload []byte
	err = s.db.Pool.QueryRow(ctx, `SELECT payload FROM transcript_tasks WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return decodeTask(payload)
}

func (s *TaskStore) List(ctx context.Context, limit int) (tasks []*models.Task, err error) {
	defer s.observe("list_tasks", time.Now(), &err)

	query := `SELECT payload FROM transcript_tasks ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks = []*models.Task{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t, err := decodeTask(payload)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Update(ctx context.Context, t *models.Task) (err error) {
	defer s.observe("update_task", time.Now(), &err)

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	query := `
		UPDATE transcript_tasks
		SET status = $2, payload = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.db.Pool.Exec(ctx, query, t.ID, string(t.Status), payload)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) (t *models.Task, err error) {
	defer s.observe("delete_task", time.Now(), &err)

	var payload []byte
	err = s.db.Pool.QueryRow(ctx, `DELETE FROM transcript_tasks WHERE id = $1 RETURNING payload`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return decodeTask(payload)
}

// Claim flips a pending task to processing in a single conditional UPDATE
func (s *TaskStore) Claim(ctx context.Context, id string) (t *models.Task, err error) {
	defer s.observe("claim_task", time.Now(), &err)

	query := `
		UPDATE transcript_tasks
		SET status = $2,
		    payload = jsonb_set(payload, '{status}', to_jsonb($2::text)),
		    updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING payload
	`

	var payload []byte
	err = s.db.Pool.QueryRow(ctx, query, id, string(models.TaskStatusProcessing), string(models.TaskStatusPending)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transcript_tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to claim task: %w", err)
		}
		if exists {
			return nil, task.ErrAlreadyProcessed
		}
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return decodeTask(payload)
}

func (s *TaskStore) observe(operation string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, task.ErrTaskNotFound) || errors.Is(err, task.ErrAlreadyProcessed) {
		err = nil
	}
	s.logger.LogDatabaseOperation(operation, time.Since(start), err)
}

func decodeTask(payload []byte) (*models.Task, error) {
	var t models.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if t.Files == nil {
		t.Files = []models.ExportedFile{}
	}
	return &t, nil
}
