// Package store holds the in-memory correlation table between processed
// error reports and the conversation threads that reference them.
package store

import (
	"sync"
	"time"

	"errorrelay/pkg/models"
)

// Mapping is one store entry: a processed report plus the thread identifiers
// currently pointing at it and its wall-clock insertion time.
type Mapping struct {
	Error     models.ProcessedError
	ThreadIDs []string
	ChannelID string
	Timestamp time.Time
}

// Store is the correlation interface. All operations are total: "not found"
// is a first-class return value, never an error. Implementations must be
// safe for concurrent use — reply-loop workers and the HTTP ingress path
// both write.
type Store interface {
	SetLastProcessedError(perr models.ProcessedError, channelID string)
	GetErrorByThreadID(threadID string) (Mapping, bool)
	MapThreadToError(threadID, errorID, channelID string) bool
	FindRecentError(channelID string) (models.ProcessedError, bool)
	Cleanup(maxAge time.Duration) int
}

type entry struct {
	mapping Mapping
	seq     uint64 // insertion order, breaks timestamp ties deterministically
}

// MemoryStore implements Store with two maps under one coarse lock, so a
// cleanup sweep can never be observed half-applied: a thread index entry
// always references a live report.
type MemoryStore struct {
	mu      sync.RWMutex
	errors  map[string]*entry // error id -> entry
	threads map[string]string // thread id -> error id
	seq     uint64
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		errors:  make(map[string]*entry),
		threads: make(map[string]string),
		now:     time.Now,
	}
}

// SetLastProcessedError inserts or replaces the entry keyed by the report id.
// Re-insertion replaces wholesale: thread ids are reset and their index
// entries dropped, and the insertion time is re-stamped.
func (s *MemoryStore) SetLastProcessedError(perr models.ProcessedError, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := perr.ID.String()
	if old, ok := s.errors[id]; ok {
		for _, threadID := range old.mapping.ThreadIDs {
			delete(s.threads, threadID)
		}
	}

	s.seq++
	s.errors[id] = &entry{
		mapping: Mapping{
			Error:     perr,
			ChannelID: channelID,
			Timestamp: s.now(),
		},
		seq: s.seq,
	}
}

// GetErrorByThreadID resolves a thread to its mapping through the thread
// index. Returns false if the thread was never mapped or its target was
// evicted.
func (s *MemoryStore) GetErrorByThreadID(threadID string) (Mapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	errorID, ok := s.threads[threadID]
	if !ok {
		return Mapping{}, false
	}
	e, ok := s.errors[errorID]
	if !ok {
		return Mapping{}, false
	}
	return copyMapping(e.mapping), true
}

// MapThreadToError points a thread at a stored report. A thread maps to
// exactly one report at a time; remapping removes the old association.
// Returns false without touching the index when the report id is unknown —
// a recoverable inconsistency, not an error.
func (s *MemoryStore) MapThreadToError(threadID, errorID, channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.errors[errorID]
	if !ok {
		return false
	}

	if oldID, mapped := s.threads[threadID]; mapped && oldID != errorID {
		if old, exists := s.errors[oldID]; exists {
			old.mapping.ThreadIDs = remove(old.mapping.ThreadIDs, threadID)
		}
	}

	s.threads[threadID] = errorID
	if !contains(e.mapping.ThreadIDs, threadID) {
		e.mapping.ThreadIDs = append(e.mapping.ThreadIDs, threadID)
	}
	return true
}

// FindRecentError returns the live report for channelID with the latest
// insertion time. Ties resolve to the last-inserted entry.
func (s *MemoryStore) FindRecentError(channelID string) (models.ProcessedError, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *entry
	for _, e := range s.errors {
		if e.mapping.ChannelID != channelID {
			continue
		}
		if best == nil || e.mapping.Timestamp.After(best.mapping.Timestamp) ||
			(e.mapping.Timestamp.Equal(best.mapping.Timestamp) && e.seq > best.seq) {
			best = e
		}
	}
	if best == nil {
		return models.ProcessedError{}, false
	}
	return best.mapping.Error, true
}

// Cleanup evicts every entry older than maxAge, removing its thread index
// entries in the same critical section. Returns the number of reports
// removed.
func (s *MemoryStore) Cleanup(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.errors {
		if now.Sub(e.mapping.Timestamp) <= maxAge {
			continue
		}
		for _, threadID := range e.mapping.ThreadIDs {
			delete(s.threads, threadID)
		}
		delete(s.errors, id)
		removed++
	}
	return removed
}

// Len returns the number of live reports.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errors)
}

func copyMapping(m Mapping) Mapping {
	out := m
	out.ThreadIDs = append([]string(nil), m.ThreadIDs...)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
