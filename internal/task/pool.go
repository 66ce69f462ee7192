package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

var (
	// ErrPoolBusy is returned when the dispatch backlog is full
	ErrPoolBusy = errors.New("worker pool is busy")
	// ErrPoolClosed is returned when dispatching after Shutdown
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Processor runs a task to completion
type Processor interface {
	Process(ctx context.Context, id string) (*models.Task, error)
}

// Pool processes dispatched tasks on a fixed number of goroutines
type Pool struct {
	processor Processor
	workers   int
	jobs      chan string
	logger    *logging.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a pool with the given worker count and backlog size
func NewPool(processor Processor, workers, backlog int, logger *logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	return &Pool{
		processor: processor,
		workers:   workers,
		jobs:      make(chan string, backlog),
		logger:    logger,
	}
}

// Start launches the workers. They stop when ctx is cancelled or Shutdown is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, p.logger.WithWorkerID(fmt.Sprintf("inline-%d", i)))
	}
}

func (p *Pool) work(ctx context.Context, logger *logging.Logger) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.jobs:
			if !ok {
				return
			}
			if _, err := p.processor.Process(ctx, id); err != nil {
				logger.WithTaskID(id).WithError(err).Warn("Dispatched task was not processed")
			}
		}
	}
}

// Dispatch queues a task for processing without blocking
func (p *Pool) Dispatch(ctx context.Context, taskID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- taskID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrPoolBusy
	}
}

// Shutdown stops accepting work and waits for queued tasks to drain.
// If ctx expires first, in-flight tasks are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		<-done
		return ctx.Err()
	}
}
