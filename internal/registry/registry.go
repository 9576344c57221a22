// Package registry keeps the latest status line of every copyurl job.
package registry

import (
	"context"
	"sync"
	"time"
)

const (
	// StartingStatus is stored when a job is accepted, before any tool output.
	StartingStatus = "Starting copyurl operation..."

	// NoProgress is returned for identifiers the registry has never seen.
	NoProgress = "No progress available"
)

type entry struct {
	status     string
	updatedAt  time.Time
	finishedAt time.Time
}

// Registry maps job IDs to the most recent status line. Every job has a
// single writer, readers may poll at any time.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set inserts or overwrites the status for id.
func (r *Registry) Set(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[id]
	e.status = status
	e.updatedAt = r.now()
	r.entries[id] = e
}

// Finish records that the job behind id has ended. Only finished entries are
// eligible for Prune. Unknown ids are ignored.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.finishedAt = r.now()
		r.entries[id] = e
	}
}

// Get returns the status for id and whether the id is known.
func (r *Registry) Get(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.status, ok
}

// Progress is Get with unknown ids mapped to NoProgress.
func (r *Registry) Progress(id string) string {
	if status, ok := r.Get(id); ok {
		return status
	}
	return NoProgress
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Prune drops finished entries that ended more than olderThan ago and returns
// how many were removed. Running jobs are kept however quiet they are. A
// non-positive olderThan removes nothing.
func (r *Registry) Prune(olderThan time.Duration) int {
	if olderThan <= 0 {
		return 0
	}

	cutoff := r.now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		if !e.finishedAt.IsZero() && e.finishedAt.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes entries finished longer than ttl ago every interval until
// ctx is done.
// onPrune, when set, is called with the number of removed entries after each
// sweep that removed something.
func (r *Registry) RunJanitor(ctx context.Context, interval, ttl time.Duration, onPrune func(removed int)) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Prune(ttl); removed > 0 && onPrune != nil {
				onPrune(removed)
			}
		}
	}
}
