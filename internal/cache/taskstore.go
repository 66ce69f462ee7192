package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const (
	taskIndexKey    = "tasks:index"
	maxClaimRetries = 10
)

// TaskStore keeps task records in Redis as JSON, indexed by creation time
// in a sorted set. A non-zero ttl expires records; expired ids are pruned
// from the index lazily on List.
type TaskStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaskStore creates a Redis backed task store
func (c *Cache) NewTaskStore(ttl time.Duration) *TaskStore {
	return &TaskStore{client: c.client, ttl: ttl}
}

var _ task.Store = (*TaskStore)(nil)

func taskKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

func (s *TaskStore) Create(ctx context.Context, t *models.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, taskKey(t.ID), data, s.ttl)
		pipe.ZAdd(ctx, taskIndexKey, redis.Z{
			Score:  float64(t.CreatedAt.UnixMicro()),
			Member: t.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	data, err := s.client.Get(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return decodeTask(data)
}

func (s *TaskStore) List(ctx context.Context, limit int) ([]*models.Task, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, taskIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Task{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		t, err := decodeTask([]byte(raw))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if len(expired) > 0 {
		s.client.ZRem(ctx, taskIndexKey, expired...)
	}

	task.SortNewestFirst(tasks)
	return tasks, nil
}

func (s *TaskStore) Update(ctx context.Context, t *models.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	err = s.client.SetArgs(ctx, taskKey(t.ID), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return task.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) (*models.Task, error) {
	data, err := s.client.GetDel(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, task.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	if err := s.client.ZRem(ctx, taskIndexKey, id).Err(); err != nil {
		return nil, fmt.Errorf("failed to unindex task: %w", err)
	}
	return decodeTask(data)
}

// Claim uses WATCH/MULTI so only one caller moves a task out of pending
func (s *TaskStore) Claim(ctx context.Context, id string) (*models.Task, error) {
	key := taskKey(id)
	var claimed *models.Task

	claim := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return task.ErrTaskNotFound
		}
		if err != nil {
			return err
		}

		t, err := decodeTask(data)
		if err != nil {
			return err
		}
		if t.Status != models.TaskStatusPending {
			return task.ErrAlreadyProcessed
		}

		t.Status = models.TaskStatusProcessing
		updated, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			claimed = t
		}
		return err
	}

	for i := 0; i < maxClaimRetries; i++ {
		err := s.client.Watch(ctx, claim, key)
		if err == nil {
			return claimed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, task.ErrTaskNotFound) || errors.Is(err, task.ErrAlreadyProcessed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return nil, fmt.Errorf("failed to claim task %s: too much contention", id)
}

func decodeTask(data []byte) (*models.Task, error) {
	var t models.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if t.Files == nil {
		t.Files = []models.ExportedFile{}
	}
	return &t, nil
}
