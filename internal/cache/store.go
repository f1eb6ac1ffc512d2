package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Record is one cached translation, shared by both tiers.
type Record struct {
	Key            string
	AccountID      string
	TranslatedText string
	SourceLang     string
	TargetLang     string
	Engine         string
	DetectedLang   string
	CreatedAt      time.Time
	AccessedAt     time.Time
	AccessCount    int64
}

// Backend is the durable tier. Implementations return (nil, nil) when a key
// is absent.
type Backend interface {
	GetRecord(ctx context.Context, key string) (*Record, error)
	PutRecord(ctx context.Context, rec *Record) error
	TouchRecord(ctx context.Context, key string, accessedAt time.Time) error
	DeleteRecord(ctx context.Context, key string) error
	DeleteRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteRecordsByAccount(ctx context.Context, accountID string) (int64, error)
	DeleteAllRecords(ctx context.Context) error
}

// Stats reports hit/miss counters for the combined store.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	MemoryEntries int   `json:"memory_entries"`
}

// Store is the two-tier translation cache: a bounded LRU memory tier over a
// durable backend, both expiring entries after the configured TTL.
type Store struct {
	mem     *memoryTier
	backend Backend
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type StoreOptions struct {
	MemoryEntries int
	TTL           time.Duration
}

const DefaultTTL = 7 * 24 * time.Hour

func NewStore(backend Backend, logger zerolog.Logger, opts StoreOptions) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries := opts.MemoryEntries
	if entries < 1 {
		entries = 1000
	}

	now := time.Now
	return &Store{
		mem:     newMemoryTier(entries, ttl, now),
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		now:     now,
	}
}

// Get returns the unexpired record for key, consulting the memory tier first
// and promoting durable hits into it. Expired durable rows are deleted.
func (s *Store) Get(ctx context.Context, key string) (*Record, bool) {
	if rec, ok := s.mem.get(key); ok {
		s.hits.Add(1)
		return rec, true
	}

	if s.backend != nil {
		rec, err := s.backend.GetRecord(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("durable cache read failed")
		} else if rec != nil {
			if s.expired(rec) {
				if delErr := s.backend.DeleteRecord(ctx, key); delErr != nil {
					s.logger.Warn().Err(delErr).Msg("expired cache row delete failed")
				}
			} else {
				rec.AccessedAt = s.now()
				rec.AccessCount++
				if touchErr := s.backend.TouchRecord(ctx, key, rec.AccessedAt); touchErr != nil {
					s.logger.Warn().Err(touchErr).Msg("cache row touch failed")
				}
				s.mem.set(rec)
				s.hits.Add(1)
				return rec, true
			}
		}
	}

	s.misses.Add(1)
	return nil, false
}

// Set writes the record to both tiers. A durable-tier failure is logged and
// never fails the call.
func (s *Store) Set(ctx context.Context, rec *Record) {
	if rec == nil || rec.Key == "" {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.AccessedAt.IsZero() {
		rec.AccessedAt = rec.CreatedAt
	}

	s.mem.set(rec)

	if s.backend == nil {
		return
	}
	if err := s.backend.PutRecord(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("engine", rec.Engine).Msg("durable cache write failed")
	}
}

// Cleanup sweeps expired rows out of the durable tier.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	if s.backend == nil {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl)
	return s.backend.DeleteRecordsBefore(ctx, cutoff)
}

// ClearAccount removes all records scoped to accountID from both tiers.
func (s *Store) ClearAccount(ctx context.Context, accountID string) error {
	s.mem.deleteAccount(accountID)
	if s.backend == nil {
		return nil
	}
	_, err := s.backend.DeleteRecordsByAccount(ctx, accountID)
	return err
}

// Clear empties both tiers and resets the hit/miss counters.
func (s *Store) Clear(ctx context.Context) error {
	s.mem.clear()
	s.hits.Store(0)
	s.misses.Store(0)
	if s.backend == nil {
		return nil
	}
	return s.backend.DeleteAllRecords(ctx)
}

func (s *Store) Stats() Stats {
	return Stats{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		MemoryEntries: s.mem.len(),
	}
}

// TTL exposes the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) expired(rec *Record) bool {
	return s.now().Sub(rec.CreatedAt) >= s.ttl
}

// setClock overrides the time source for tests on both tiers.
func (s *Store) setClock(now func() time.Time) {
	s.now = now
	s.mem.now = now
}
