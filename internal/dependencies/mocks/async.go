package mocks

import (
	"sync"

	"github.com/mcoot/openworld/internal/dependencies/async"
)

// SyncSpawner runs work inline on the calling goroutine
type SyncSpawner struct{}

// Ensure SyncSpawner implements Spawner
var _ async.Spawner = (*SyncSpawner)(nil)

// Go runs fn immediately
func (SyncSpawner) Go(fn func()) { fn() }

// Wait returns immediately
func (SyncSpawner) Wait() {}

// QueuedSpawner holds work until Drain is called.
// Use it to observe state between scheduling and completion.
type QueuedSpawner struct {
	mu      sync.Mutex
	pending []func()
}

// Ensure QueuedSpawner implements Spawner
var _ async.Spawner = (*QueuedSpawner)(nil)

// NewQueuedSpawner creates an empty QueuedSpawner
func NewQueuedSpawner() *QueuedSpawner {
	return &QueuedSpawner{}
}

// Go queues fn
func (s *QueuedSpawner) Go(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
}

// Pending returns the number of queued functions
func (s *QueuedSpawner) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Drain runs every queued function, including ones queued while draining
func (s *QueuedSpawner) Drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		fn()
	}
}

// Wait runs all queued work
func (s *QueuedSpawner) Wait() {
	s.Drain()
}
