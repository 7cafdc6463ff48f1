// Package parallel provides a small bounded worker pool used by the solver
// host bridge to fan independent, read-only solver passes out across
// goroutines while keeping the number of concurrently live solvers bounded.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for running independent tasks
// with bounded concurrency and backpressure, so that fanning out, say, one
// NoMap/TryMap check per base solution cannot spawn an unbounded number of
// solvers over the same structure at once.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of
// workers. If maxWorkers is 0 or negative, it defaults to GOMAXPROCS.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()

	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit submits a task to the worker pool for execution. If the pool is
// full, this call blocks until a worker becomes available, ctx is
// cancelled, or the pool is shut down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown gracefully shuts down the worker pool, waiting for all
// currently executing tasks to complete.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		close(wp.taskChan)
		wp.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned when trying to submit tasks to a shut-down
// pool.
var ErrPoolShutdown = fmt.Errorf("parallel: worker pool has been shut down")
