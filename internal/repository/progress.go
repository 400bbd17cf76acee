package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

// ErrMemoryOnly is returned by Persist while the stored snapshot could not
// be loaded.
var ErrMemoryOnly = fmt.Errorf("%w: stored progress not loaded, changes kept in memory", entities.ErrStorageUnavailable)

// ProgressStore owns the progress records of one learner. Reads and writes
// go against memory; Load and Persist move whole snapshots through a KV.
//
// Records are keyed by item id only. Records for ids that are not in the
// current catalog are kept and written back, so history survives catalog
// changes.
//
// After a failed Load the store is memory only: Persist refuses to write
// until a later Load succeeds or Reset is called, so the stored snapshot is
// never replaced by the empty fallback.
type ProgressStore struct {
	mu         sync.RWMutex
	records    map[entities.ItemID]entities.ProgressRecord
	memoryOnly bool

	kv  storage.KV // nil means memory only
	key string
	now func() time.Time
}

// StoreOption configures a ProgressStore.
type StoreOption func(*ProgressStore)

// WithClock replaces time.Now, used for lastSeenAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ProgressStore) { s.now = now }
}

// NewProgressStore creates an empty store persisted under key in kv.
func NewProgressStore(kv storage.KV, key string, opts ...StoreOption) *ProgressStore {
	s := &ProgressStore{
		records: make(map[entities.ItemID]entities.ProgressRecord),
		kv:      kv,
		key:     key,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key of this store.
func (s *ProgressStore) Key() string {
	return s.key
}

// Now returns the store clock.
func (s *ProgressStore) Now() time.Time {
	return s.now()
}

// Get returns the record for id, or the defaults if the item has no history.
// It never fails and never writes.
func (s *ProgressStore) Get(id entities.ItemID) entities.ProgressRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.records[id]; ok {
		return p
	}
	return entities.NewProgressRecord(id)
}

// Update applies fn to the current record of id and stores the result.
// Calls are atomic per record and applied in call order.
func (s *ProgressStore) Update(
	id entities.ItemID,
	fn func(entities.ProgressRecord) entities.ProgressRecord,
) entities.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		current = entities.NewProgressRecord(id)
	}

	next := fn(current)
	next.ItemID = id
	s.records[id] = next
	return next
}

// MarkFavorite sets the favorite flag of id.
func (s *ProgressStore) MarkFavorite(id entities.ItemID, favorite bool) entities.ProgressRecord {
	return s.Update(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsFavorite = favorite
		return p
	})
}

// MarkMemorized sets the memorized flag of id.
func (s *ProgressStore) MarkMemorized(id entities.ItemID, memorized bool) entities.ProgressRecord {
	return s.Update(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsMemorized = memorized
		return p
	})
}

// RecordAnswer updates difficulty and counters of id after an answer.
func (s *ProgressStore) RecordAnswer(id entities.ItemID, correct bool) entities.ProgressRecord {
	now := s.now()
	return s.Update(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		return p.RecordAnswer(correct, now)
	})
}

// Snapshot returns a copy of all records.
func (s *ProgressStore) Snapshot() entities.ProgressSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(entities.ProgressSnapshot, len(s.records))
	for id, p := range s.records {
		out[id] = p
	}
	return out
}

// Reset drops all records. It is an explicit wipe, so a memory only store
// may write again afterwards.
func (s *ProgressStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[entities.ItemID]entities.ProgressRecord)
	s.memoryOnly = false
}

// MemoryOnly reports whether the last Load failed and writes are held back.
func (s *ProgressStore) MemoryOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryOnly
}

// Load replaces the in-memory records with the stored snapshot.
//
// A missing snapshot yields an empty store and no error. If the storage
// fails or the snapshot is corrupt, the store falls back to empty, turns
// memory only and the returned error wraps entities.ErrStorageUnavailable.
// The store is usable in every case; the error is a warning for the caller
// to report.
//
// Loading a memory only store again keeps its records on failure. On
// success the stored records are merged with the in-memory ones, which win
// per item.
func (s *ProgressStore) Load(ctx context.Context) (SessionMeta, error) {
	if s.kv == nil {
		return SessionMeta{}, nil
	}

	retry := s.MemoryOnly()

	var records entities.ProgressSnapshot
	meta := SessionMeta{}

	data, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		records = make(entities.ProgressSnapshot)
	case err != nil:
		return SessionMeta{}, s.degrade(retry, fmt.Errorf("%w: load %q: %w", entities.ErrStorageUnavailable, s.key, err))
	default:
		if records, meta, err = DecodeSnapshot(data); err != nil {
			return SessionMeta{}, s.degrade(retry, fmt.Errorf("%w: load %q: %w", entities.ErrStorageUnavailable, s.key, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if retry && !s.memoryOnly {
		// Reset or another Load finished first; their state stands.
		return SessionMeta{}, nil
	}
	if s.memoryOnly {
		for id, p := range s.records {
			records[id] = p
		}
		s.memoryOnly = false
	}
	s.records = records

	return meta, nil
}

// degrade turns the store memory only after a failed first load. A failed
// retry leaves the store as it is.
func (s *ProgressStore) degrade(retry bool, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !retry {
		s.records = make(map[entities.ItemID]entities.ProgressRecord)
		s.memoryOnly = true
	}
	return err
}

// Encode serializes all records together with meta.
func (s *ProgressStore) Encode(meta SessionMeta) ([]byte, error) {
	return EncodeSnapshot(s.Snapshot(), meta)
}

// Persist writes all records together with meta to storage. A memory only
// store returns ErrMemoryOnly and writes nothing.
func (s *ProgressStore) Persist(ctx context.Context, meta SessionMeta) error {
	if s.kv == nil {
		return nil
	}
	if s.MemoryOnly() {
		return fmt.Errorf("%w: %q", ErrMemoryOnly, s.key)
	}

	data, err := s.Encode(meta)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: persist %q: %w", entities.ErrStorageUnavailable, s.key, err)
	}
	return nil
}
