// Package tasktest holds a behavioural test suite shared by every task.Store.
package tasktest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// NewTask builds a pending task created at the given time
func NewTask(id string, createdAt time.Time) *models.Task {
	return &models.Task{
		ID:     id,
		Status: models.TaskStatusPending,
		Video:  models.VideoReference{VideoID: "abc12345678", URL: "https://youtu.be/abc12345678"},
		Options: models.TaskOptions{
			Format:    models.FileFormatBoth,
			Languages: []string{"en"},
		},
		Files:     []models.ExportedFile{},
		CreatedAt: createdAt.UTC().Truncate(time.Microsecond),
	}
}

// RunStoreTests exercises the Store contract against a fresh store per subtest
func RunStoreTests(t *testing.T, newStore func(t *testing.T) task.Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		got, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, got.Status)
		assert.Equal(t, "abc12345678", got.Video.VideoID)
		assert.Equal(t, []string{"en"}, got.Options.Languages)
		assert.Nil(t, got.Transcript)
		assert.Empty(t, got.Files)
		assert.True(t, got.CreatedAt.Equal(base))

		_, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Create(ctx, NewTask(fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Minute))))
		}

		all, err := s.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "t4", all[0].ID)
		assert.Equal(t, "t0", all[4].ID)

		limited, err := s.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "t4", limited[0].ID)
		assert.Equal(t, "t3", limited[1].ID)
	})

	t.Run("UpdateRoundTrip", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		done := NewTask("t1", base)
		done.Status = models.TaskStatusCompleted
		done.Transcript = models.NewTranscript(done.Video, []models.Snippet{{Text: "hi", Start: 0, Duration: 1}}, "en", false)
		done.Files = []models.ExportedFile{{Filename: "a.txt", Format: models.FileFormatTXT, SizeBytes: 3, Path: "/tmp/a.txt"}}
		completed := base.Add(time.Second)
		elapsed := 1.25
		done.CompletedAt = &completed
		done.ProcessingTimeSeconds = &elapsed
		require.NoError(t, s.Update(ctx, done))

		got, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusCompleted, got.Status)
		require.NotNil(t, got.Transcript)
		assert.Equal(t, "hi", got.Transcript.FullText)
		assert.Equal(t, done.Files, got.Files)
		require.NotNil(t, got.ProcessingTimeSeconds)
		assert.Equal(t, 1.25, *got.ProcessingTimeSeconds)

		err = s.Update(ctx, NewTask("missing", base))
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		got, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		got.Status = models.TaskStatusFailed
		got.Options.Languages[0] = "de"

		again, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, again.Status)
		assert.Equal(t, "en", again.Options.Languages[0])
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		removed, err := s.Delete(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "t1", removed.ID)

		_, err = s.Get(ctx, "t1")
		assert.ErrorIs(t, err, task.ErrTaskNotFound)

		_, err = s.Delete(ctx, "t1")
		assert.ErrorIs(t, err, task.ErrTaskNotFound)

		all, err := s.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ClaimOnce", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		claimed, err := s.Claim(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusProcessing, claimed.Status)

		got, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusProcessing, got.Status)

		_, err = s.Claim(ctx, "t1")
		assert.ErrorIs(t, err, task.ErrAlreadyProcessed)

		_, err = s.Claim(ctx, "missing")
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})

	t.Run("ConcurrentClaim", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewTask("t1", base)))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Claim(ctx, "t1"); err == nil {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins)
	})
}
