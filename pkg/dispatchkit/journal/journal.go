// Package journal persists diagnostics incidents for dispatchkit.
//
// An incident is a recoverable condition the runtime handled without a
// caller to report to: a recovered subscriber panic, an unmatched private
// send, or a stale handle on a deferred operation. Incidents never stop the
// runtime; the journal exists so they can be inspected after the fact.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an incident.
type Kind string

// Incident kind constants.
const (
	KindPanic          Kind = "panic"
	KindUnmatchedSend  Kind = "unmatched_send"
	KindStaleHandle    Kind = "stale_handle"
	KindDomainMismatch Kind = "domain_mismatch"
	KindError          Kind = "error"
)

// Record is one journaled incident.
type Record struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// RuntimeID is the runtime instance the incident occurred on.
	RuntimeID string `json:"runtime_id"`

	// Kind classifies the incident.
	Kind Kind `json:"kind"`

	// Activity is the state type name of the involved activity, if any.
	Activity string `json:"activity,omitempty"`

	// Topic is the message topic being dispatched, if any.
	Topic string `json:"topic,omitempty"`

	// Domain is the involved domain ID, or -1 when none.
	Domain int `json:"domain"`

	// Detail is the human-readable error text.
	Detail string `json:"detail"`

	// OccurredAt is when the incident was recorded.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecord creates a record with a fresh ID and timestamp.
func NewRecord(runtimeID string, kind Kind, detail string) *Record {
	return &Record{
		ID:         fmt.Sprintf("inc-%s", uuid.New().String()[:8]),
		RuntimeID:  runtimeID,
		Kind:       kind,
		Domain:     -1,
		Detail:     detail,
		OccurredAt: time.Now(),
	}
}

// Clone creates a copy of the record.
func (r *Record) Clone() *Record {
	recordCopy := *r
	return &recordCopy
}

// Store persists and retrieves incident records.
type Store interface {
	// Append adds a record to the journal.
	Append(ctx context.Context, record *Record) error

	// List returns the most recent records, newest first.
	// A limit of 0 returns all records.
	List(ctx context.Context, limit int) ([]*Record, error)

	// ListByKind returns the most recent records of one kind, newest first.
	ListByKind(ctx context.Context, kind Kind, limit int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	records []*Record
	mu      sync.RWMutex
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a record to the journal.
func (s *MemoryStore) Append(_ context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = fmt.Sprintf("inc-%s", uuid.New().String()[:8])
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record.Clone())
	return nil
}

// List returns the most recent records, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(limit, func(*Record) bool { return true }), nil
}

// ListByKind returns the most recent records of one kind, newest first.
func (s *MemoryStore) ListByKind(_ context.Context, kind Kind, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(limit, func(r *Record) bool { return r.Kind == kind }), nil
}

// collect walks records newest first. Caller holds the lock.
func (s *MemoryStore) collect(limit int, match func(*Record) bool) []*Record {
	var result []*Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		if match(s.records[i]) {
			result = append(result, s.records[i].Clone())
		}
	}
	return result
}

// Count returns the total number of records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close implements Store. It is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
