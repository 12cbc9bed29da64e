package services

import (
	"sync"
	"sync/atomic"

	"github.com/hanko-field/catalog-console/internal/domain"
)

type snapshotFn = func(*domain.CatalogSnapshot) *domain.CatalogSnapshot

type journalEntry struct {
	version uint64
	apply   snapshotFn
}

// SnapshotStore owns the catalog snapshot of one console session. Readers load the current pointer
// without locking. Writes are serialised: the coordinator commits mutation results, and the reader
// swaps in loaded data through beginLoad/finishLoad.
type SnapshotStore struct {
	current atomic.Pointer[domain.CatalogSnapshot]
	version atomic.Uint64

	writeMu sync.Mutex
	loads   int
	// journal holds commits made while a load is running, so they can be replayed over it.
	journal []journalEntry
}

// NewSnapshotStore seeds the store. A nil snapshot starts empty.
func NewSnapshotStore(initial *domain.CatalogSnapshot) *SnapshotStore {
	if initial == nil {
		initial = domain.EmptySnapshot()
	}
	s := &SnapshotStore{}
	s.current.Store(initial)
	return s
}

// Load returns the current snapshot. Callers must treat it as read-only.
func (s *SnapshotStore) Load() *domain.CatalogSnapshot {
	return s.current.Load()
}

// Version increases by one with every swap.
func (s *SnapshotStore) Version() uint64 {
	return s.version.Load()
}

// commit applies a committed mutation's canonical value to the current snapshot.
func (s *SnapshotStore) commit(fn snapshotFn) *domain.CatalogSnapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	next := fn(s.current.Load())
	if next == nil {
		return s.current.Load()
	}
	v := s.swapLocked(next)
	if s.loads > 0 {
		s.journal = append(s.journal, journalEntry{version: v, apply: fn})
	}
	return next
}

// beginLoad marks a load as running and returns the version it starts from.
func (s *SnapshotStore) beginLoad() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.loads++
	return s.version.Load()
}

// finishLoad ends a load started at version since. build derives the loaded snapshot from the
// current one; every commit made after since is replayed on top so loaded data never overwrites a
// newer canonical value. A nil build abandons the load and keeps the current snapshot.
func (s *SnapshotStore) finishLoad(since uint64, build snapshotFn) *domain.CatalogSnapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer func() {
		if s.loads--; s.loads == 0 {
			s.journal = nil
		}
	}()
	if build == nil {
		return s.current.Load()
	}
	next := build(s.current.Load())
	if next == nil {
		return s.current.Load()
	}
	for _, entry := range s.journal {
		if entry.version > since {
			next = entry.apply(next)
		}
	}
	s.swapLocked(next)
	return next
}

func (s *SnapshotStore) swapLocked(next *domain.CatalogSnapshot) uint64 {
	s.current.Store(next)
	return s.version.Add(1)
}
