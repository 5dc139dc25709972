package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// MemoryIndex holds the current settings snapshot in memory.
// Readers get an immutable value; writers swap the whole snapshot.
// Writes that go through a backend (Edit, Sync) are serialized by writeMu so
// a save never interleaves with another save or with a reload.
type MemoryIndex struct {
	writeMu    sync.Mutex
	mu         sync.RWMutex
	snapshot   domain.Snapshot
	lastReload time.Time // zero until the first Replace
	source     string    // backend name of the last Replace
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		snapshot: domain.NewSnapshot(nil),
	}
}

// Replace swaps the snapshot loaded from source.
func (idx *MemoryIndex) Replace(snap domain.Snapshot, source string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshot = snap
	idx.source = source
	idx.lastReload = time.Now()
}

// Update replaces the pair of a single service and returns the new snapshot.
func (idx *MemoryIndex) Update(id domain.ServiceIdentity, pair domain.EndpointPair) domain.Snapshot {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshot = idx.snapshot.With(id, pair)
	return idx.snapshot
}

// Edit runs a read-modify-write of the pair of id. edit receives the current
// pair and returns the new one; persist stores it before the snapshot
// changes. When persist fails the snapshot is left untouched.
func (idx *MemoryIndex) Edit(
	id domain.ServiceIdentity,
	edit func(domain.EndpointPair) domain.EndpointPair,
	persist func(domain.EndpointPair) error,
) (domain.Snapshot, error) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	pair := edit(idx.Pair(id))
	if err := persist(pair); err != nil {
		return idx.Snapshot(), err
	}
	return idx.Update(id, pair), nil
}

// Sync loads a full snapshot and replaces the current one. No Edit can run
// between load and replace.
func (idx *MemoryIndex) Sync(load func() (domain.Snapshot, error), source string) (domain.Snapshot, error) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	snap, err := load()
	if err != nil {
		return domain.Snapshot{}, err
	}
	idx.Replace(snap, source)
	return snap, nil
}

// Snapshot returns the current snapshot.
func (idx *MemoryIndex) Snapshot() domain.Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.snapshot
}

// Pair returns the endpoints configured for id.
func (idx *MemoryIndex) Pair(id domain.ServiceIdentity) domain.EndpointPair {
	return idx.Snapshot().Pair(id)
}

// Count returns the number of services with at least one candidate.
func (idx *MemoryIndex) Count() int {
	return idx.Snapshot().Configured()
}

// Loaded reports whether a snapshot was ever loaded from a backend.
func (idx *MemoryIndex) Loaded() bool {
	return !idx.GetLastReload().IsZero()
}

// Source returns the backend name of the last reload.
func (idx *MemoryIndex) Source() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.source
}

// GetLastReload returns the timestamp of the last reload.
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
