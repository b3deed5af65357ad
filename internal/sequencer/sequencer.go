// Package sequencer serializes work per user without a global lock.
package sequencer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Sequencer hands out one exclusion scope per user id. Scopes are created on
// first use and kept for the lifetime of the process.
type Sequencer struct {
	scopes sync.Map // int64 -> *semaphore.Weighted
	count  atomic.Int64

	onWait  func(time.Duration)
	onScope func(n int64)
}

type Option func(*Sequencer)

// WithWaitObserver reports how long each caller waited for its scope.
func WithWaitObserver(fn func(time.Duration)) Option {
	return func(s *Sequencer) { s.onWait = fn }
}

// WithScopeObserver reports the number of scopes after a new one is created.
func WithScopeObserver(fn func(n int64)) Option {
	return func(s *Sequencer) { s.onScope = fn }
}

func New(opts ...Option) *Sequencer {
	s := &Sequencer{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sequencer) scope(userID int64) *semaphore.Weighted {
	if v, ok := s.scopes.Load(userID); ok {
		return v.(*semaphore.Weighted)
	}
	v, loaded := s.scopes.LoadOrStore(userID, semaphore.NewWeighted(1))
	if !loaded {
		n := s.count.Add(1)
		if s.onScope != nil {
			s.onScope(n)
		}
	}
	return v.(*semaphore.Weighted)
}

// WithExclusiveAccess runs fn while holding userID's scope and returns fn's
// error unchanged. If ctx ends before the scope is acquired, fn is not run
// and ctx.Err() is returned. The scope is released on every exit path,
// panics included.
func (s *Sequencer) WithExclusiveAccess(ctx context.Context, userID int64, fn func() error) error {
	sem := s.scope(userID)

	start := time.Now()
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	if s.onWait != nil {
		s.onWait(time.Since(start))
	}

	return fn()
}

// Len is the number of user scopes created so far.
func (s *Sequencer) Len() int64 { return s.count.Load() }
