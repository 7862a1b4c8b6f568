// Package visits counts page requests for the lifetime of the process.
package visits

import (
	"sort"
	"sync"
	"time"
)

// Counter tallies requests per route pattern. A Counter starts empty, is never
// persisted, and is owned by the server that creates it.
type Counter struct {
	mu      sync.Mutex
	counts  map[string]uint64
	since   time.Time
	nowFunc func() time.Time
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	c := &Counter{nowFunc: time.Now}
	c.Reset()
	return c
}

// Hit records one request for path. Callers pass route patterns rather
// than raw request paths, which keeps the key set bounded.
func (c *Counter) Hit(path string) {
	c.mu.Lock()
	c.counts[path]++
	c.mu.Unlock()
}

// Count returns the number of hits recorded for path.
func (c *Counter) Count(path string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

// Reset drops all counts and restarts the window.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]uint64)
	c.since = c.nowFunc().UTC()
}

// PathCount is one row of a snapshot.
type PathCount struct {
	Path  string `json:"path"`
	Count uint64 `json:"count"`
}

// Snapshot is a copy of the counter at one moment.
type Snapshot struct {
	Since time.Time   `json:"since"`
	Total uint64      `json:"total"`
	Paths []PathCount `json:"paths"`
}

// Snapshot copies the current counts, busiest path first.
func (c *Counter) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{Since: c.since, Paths: make([]PathCount, 0, len(c.counts))}
	for p, n := range c.counts {
		s.Paths = append(s.Paths, PathCount{Path: p, Count: n})
		s.Total += n
	}
	c.mu.Unlock()

	sort.Slice(s.Paths, func(i, j int) bool {
		if s.Paths[i].Count != s.Paths[j].Count {
			return s.Paths[i].Count > s.Paths[j].Count
		}
		return s.Paths[i].Path < s.Paths[j].Path
	})
	return s
}
