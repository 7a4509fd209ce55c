package mirror

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver tracks output paths claimed by source files and resolves
// duplicates by appending " - dupN" suffixes. Callers resolve in sorted
// source order so the assignment is deterministic. All methods are
// goroutine-safe.
type Resolver struct {
	mu       sync.Mutex
	owners   map[string]string
	counters map[string]int
}

// NewResolver creates a ready-to-use resolver.
func NewResolver() *Resolver {
	return &Resolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for source. The requested path is
// returned when unclaimed or already owned by source; otherwise the next free
// " - dupN" variant.
func (r *Resolver) Resolve(source, requested string) string {
	return r.ResolveAvoiding(source, requested, nil)
}

// ResolveAvoiding is Resolve with an extra occupancy test. A path that
// occupied reports true is never handed to a new owner, so files that exist
// outside the run keep their contents. A nil occupied checks claims only.
func (r *Resolver) ResolveAvoiding(source, requested string, occupied func(string) bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimable(source, requested, occupied) {
		r.owners[requested] = source
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := max(r.counters[requested], 1)
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		if r.claimable(source, candidate, occupied) {
			r.counters[requested] = counter + 1
			r.owners[candidate] = source
			return candidate
		}
		counter++
	}
}

func (r *Resolver) claimable(source, path string, occupied func(string) bool) bool {
	owner, claimed := r.owners[path]
	if claimed {
		return owner == source
	}
	return occupied == nil || !occupied(path)
}
