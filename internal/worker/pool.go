package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type task func()

type Pool struct {
	wg    sync.WaitGroup
	jobs  chan task
	depth prometheus.Gauge

	mu     sync.RWMutex
	closed bool
}

type Option func(*Pool)

// WithDepthGauge keeps g equal to the number of queued jobs.
func WithDepthGauge(g prometheus.Gauge) Option {
	return func(p *Pool) { p.depth = g }
}

// NewPool starts n workers reading from a queue of the given size.
func NewPool(n, size int, opts ...Option) *Pool {
	if n <= 0 {
		n = 1
	}
	if size <= 0 {
		size = 1024
	}
	p := &Pool{jobs: make(chan task, size)}
	for _, o := range opts {
		o(p)
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.track(-1)
				job()
			}
		}()
	}
	return p
}

func (p *Pool) track(delta float64) {
	if p.depth != nil {
		p.depth.Add(delta)
	}
}

// TrySubmit queues f without blocking. It reports false when the queue is
// full or the pool is stopped.
func (p *Pool) TrySubmit(f task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		p.track(1)
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
