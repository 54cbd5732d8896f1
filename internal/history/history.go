// Package history records completed pricing calculations and serves them
// back newest first. Records are write-once snapshots.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/otimizavenda/internal/pricing"
)

// ErrStorageUnavailable reports that the underlying storage medium could not
// serve the request. Retrying the append alone is safe.
var ErrStorageUnavailable = errors.New("calculation storage unavailable")

// StorageError wraps a backend failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// Record is one persisted calculation.
type Record struct {
	ID        uuid.UUID
	Seq       int64
	CreatedAt time.Time
	Input     pricing.Input
	Result    pricing.Result
}

// Backend is the durable append-only medium behind a Store.
type Backend interface {
	// Insert stores rec and returns its insertion sequence.
	Insert(ctx context.Context, rec Record) (int64, error)
	// Recent returns up to limit records ordered by created_at desc, then
	// insertion order desc. A non-positive limit returns every record.
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Store owns the calculation history.
type Store struct {
	backend Backend
	now     func() time.Time
	newID   func() uuid.UUID

	mu     sync.Mutex
	primed bool
	last   time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore returns a Store writing to backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a successful calculation. Id and created_at are assigned
// under the store lock so concurrent callers never share an id and created_at
// never decreases in insertion order.
func (s *Store) Append(ctx context.Context, in pricing.Input, res pricing.Result) (Record, error) {
	rec := Record{Input: in, Result: res}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.primed {
		latest, err := s.backend.Recent(ctx, 1)
		if err != nil {
			return Record{}, &StorageError{Op: "append calculation", Err: err}
		}
		if len(latest) > 0 {
			s.last = latest[0].CreatedAt
		}
		s.primed = true
	}

	rec.ID = s.newID()
	rec.CreatedAt = s.now().UTC()
	if rec.CreatedAt.Before(s.last) {
		rec.CreatedAt = s.last
	}

	seq, err := s.backend.Insert(ctx, rec)
	if err != nil {
		return Record{}, &StorageError{Op: "append calculation", Err: err}
	}
	s.last = rec.CreatedAt
	rec.Seq = seq

	return rec, nil
}

// ListRecent returns up to limit records, newest first. A non-positive limit
// returns the full history. On failure the returned slice is empty.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 0 {
		limit = 0
	}
	records, err := s.backend.Recent(ctx, limit)
	if err != nil {
		return []Record{}, &StorageError{Op: "list calculations", Err: err}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
