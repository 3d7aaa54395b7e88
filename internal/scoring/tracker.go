package scoring

import (
	"context"
	"strconv"
	"sync"
)

// RunTracker is the in-process RunRegistry. It only sees runs started by
// engines in the same process; services split across processes should
// share a persistent registry instead.
type RunTracker struct {
	mu     sync.Mutex
	nextID int
	runs   map[string]int64
}

func NewRunTracker() *RunTracker {
	return &RunTracker{runs: make(map[string]int64)}
}

func (t *RunTracker) BeginRun(_ context.Context, userID int64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := strconv.Itoa(t.nextID)
	t.runs[id] = userID
	return id, nil
}

// EndRun forgets runID. Ending an unknown run is a no-op.
func (t *RunTracker) EndRun(_ context.Context, runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, runID)
	return nil
}

func (t *RunTracker) RunInFlight(_ context.Context, userID int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.runs {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}
