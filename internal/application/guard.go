package application

import "sync"

// RunGuard serialises sync runs per instance within this process. The
// persisted schedule flag covers other processes; this covers goroutines
// racing inside one.
type RunGuard struct {
	mu      sync.Mutex
	running map[uint]bool
}

func NewRunGuard() *RunGuard {
	return &RunGuard{running: make(map[uint]bool)}
}

// TryAcquire reports whether the caller may run a sync for the instance.
// A false return means another run is in flight; callers skip, they never
// queue.
func (g *RunGuard) TryAcquire(instanceID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[instanceID] {
		return false
	}
	g.running[instanceID] = true
	return true
}

// Release frees the instance for the next run.
func (g *RunGuard) Release(instanceID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, instanceID)
}
