package tiling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"golang.org/x/sync/errgroup"
)

// DefaultBatch is the number of consecutive work units handed to a worker at once.
const DefaultBatch = 32

// Scheduler runs fn for every index in [0, n). Implementations may run
// indices concurrently and in any order. The context is consulted between
// batches only; a started unit always runs to completion.
type Scheduler interface {
	ParallelFor(ctx context.Context, n int, fn func(i int)) error
}

func batchSize(b int) int {
	if b <= 0 {
		return DefaultBatch
	}
	return b
}

// Sequential runs every unit on the calling goroutine in index order.
type Sequential struct {
	Batch int
}

// ParallelFor implements Scheduler.
func (s Sequential) ParallelFor(ctx context.Context, n int, fn func(i int)) error {
	batch := batchSize(s.Batch)
	for start := 0; start < n; start += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := start; i < min(start+batch, n); i++ {
			fn(i)
		}
	}
	return nil
}

// GroupScheduler spawns one goroutine per batch through an errgroup.
type GroupScheduler struct {
	Limit int // maximum concurrent batches, 0 for no limit
	Batch int
}

// ParallelFor implements Scheduler.
func (s GroupScheduler) ParallelFor(ctx context.Context, n int, fn func(i int)) error {
	batch := batchSize(s.Batch)
	g, gctx := errgroup.WithContext(ctx)
	if s.Limit > 0 {
		g.SetLimit(s.Limit)
	}
	for start := 0; start < n; start += batch {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < min(start+batch, n); i++ {
				fn(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ErrSchedulerClosed is returned by a PoolScheduler that was closed or not
// created with NewPoolScheduler.
var ErrSchedulerClosed = errors.New("tiling: scheduler closed")

// PoolScheduler feeds batches to a persistent worker pool, so goroutines are
// reused from frame to frame. Create it with NewPoolScheduler and release it
// with Close; the zero value runs nothing.
type PoolScheduler struct {
	Batch int

	pool   worker.DynamicWorkerPool
	mu     sync.Mutex
	nextID int
	closed bool
}

// NewPoolScheduler starts a pool of the given number of workers.
func NewPoolScheduler(workers int) *PoolScheduler {
	return &PoolScheduler{
		pool: worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

// ParallelFor implements Scheduler. It returns once every submitted batch has
// finished.
func (s *PoolScheduler) ParallelFor(ctx context.Context, n int, fn func(i int)) error {
	if !s.running() {
		return ErrSchedulerClosed
	}
	batch := batchSize(s.Batch)
	var wg sync.WaitGroup
	var err error
	for start := 0; start < n; start += batch {
		if err = ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: s.taskID(),
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < min(start+batch, n); i++ {
					fn(i)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return err
}

// Close stops the pool workers. It must not overlap a ParallelFor call;
// later calls return ErrSchedulerClosed.
func (s *PoolScheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil || s.closed {
		return nil
	}
	s.closed = true
	s.pool.Stop()
	return nil
}

func (s *PoolScheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool != nil && !s.closed
}

func (s *PoolScheduler) taskID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}
