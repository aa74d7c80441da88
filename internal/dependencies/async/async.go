package async

import "golang.org/x/sync/errgroup"

// Spawner runs background work that must not block the caller.
// Rooms use it for store I/O so the tick loop never waits on the network.
type Spawner interface {
	Go(fn func())
	// Wait blocks until all work started with Go has returned
	Wait()
}

// GoSpawner runs each function in its own goroutine on an errgroup.
// Tasks never return errors, so one failing write cannot cancel the others.
type GoSpawner struct {
	g errgroup.Group
}

// New creates a new GoSpawner
func New() *GoSpawner {
	return &GoSpawner{}
}

// Go starts fn in a new goroutine
func (s *GoSpawner) Go(fn func()) {
	s.g.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every spawned goroutine has finished
func (s *GoSpawner) Wait() {
	_ = s.g.Wait()
}
