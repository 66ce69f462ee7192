package task

import (
	"context"
	"sort"
	"sync"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// MemoryStore keeps tasks in process memory. Records are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*models.Task)}
}

func (s *MemoryStore) Create(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*models.Task, error) {
	s.mu.RLock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	delete(s.tasks, id)
	return t, nil
}

func (s *MemoryStore) Claim(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if t.Status != models.TaskStatusPending {
		return nil, ErrAlreadyProcessed
	}
	t.Status = models.TaskStatusProcessing
	return t.Clone(), nil
}

// SortNewestFirst orders tasks by creation time, newest first, breaking ties
// by id. Every Store lists in this order.
func SortNewestFirst(tasks []*models.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}
