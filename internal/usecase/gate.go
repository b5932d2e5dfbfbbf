package usecase

import "sync"

// RunGate serializes batch runs across driving adapters. The
// scheduler tick and the HTTP run trigger share one gate so two runs
// can never interleave on the same watermarks.
type RunGate struct {
	mu sync.Mutex
}

// TryAcquire claims the gate without blocking; it reports false when a
// run is already in progress.
func (g *RunGate) TryAcquire() bool {
	return g.mu.TryLock()
}

// Release frees the gate after a run.
func (g *RunGate) Release() {
	g.mu.Unlock()
}
