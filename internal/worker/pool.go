package worker

import (
	"log/slog"
	"sync"

	"github.com/baharkarakas/insider-ledger/internal/metrics"
)

type task func()

// Pool runs fire-and-forget side work (audit writes) off the request path.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan task

	mu      sync.RWMutex
	stopped bool
}

func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				run(job)
			}
		}()
	}
	return p
}

func run(job task) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("worker job panic", "err", rec)
		}
	}()
	job()
}

// Submit queues f. Once the pool is stopped f runs on the caller's goroutine.
func (p *Pool) Submit(f task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		run(f)
		return
	}
	metrics.WorkerQueueDepth.Inc()
	p.jobs <- f
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
