// Package workerpool bounds the goroutines used by the module's two
// fan-out points: signature-matrix construction in internal/minhash and
// all-pairs Jaccard verification in internal/lsh. Both call sites submit a
// batch of independent, same-shaped tasks, wait for them on their own
// sync.WaitGroup, and move on — there
// is no long-lived pool with tunable capacity or per-task error
// accounting to manage beyond that.
package workerpool

import (
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Pool runs submitted tasks on a fixed-size ants pool. Wait blocks until
// every task submitted so far has completed.
type Pool struct {
	pool       *ants.Pool
	wg         sync.WaitGroup
	isShutdown atomic.Bool
}

// New creates a Pool with size workers. size <= 0 is treated as 1.
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	pool, err := ants.NewPool(size, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	return &Pool{pool: pool}, nil
}

// Submit schedules task to run on the pool. It blocks if the pool is at
// capacity, per ants' own unbounded-blocking-queue submit semantics.
func (p *Pool) Submit(task func()) error {
	if p.isShutdown.Load() {
		return ants.ErrPoolClosed
	}

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		task()
	})
	if err != nil {
		p.wg.Done()
	}
	return err
}

// Wait blocks until every task submitted so far has completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown waits for outstanding work then releases the underlying pool.
// The Pool must not be reused afterward.
func (p *Pool) Shutdown() {
	p.isShutdown.Store(true)
	p.Wait()
	p.pool.Release()
}
