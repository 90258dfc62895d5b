package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Version is one stored revision of an object.
type Version struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// objectHistory holds the time-ordered revisions of one object.
type objectHistory struct {
	versions []Version
}

// MemoryStore is a concurrency-safe in-memory BlobStore. It keeps recent
// revisions of each object for inspection; Get always returns the newest.
type MemoryStore struct {
	mu sync.RWMutex

	// key: bucket/key, value: history
	data map[string]*objectHistory

	// retention configuration
	maxHistory int           // max number of revisions per object
	maxAge     time.Duration // optional max age for revisions
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*objectHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Put appends a new revision and enforces retention.
func (s *MemoryStore) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	id := bucket + "/" + key
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[id]
	if !ok {
		history = &objectHistory{}
		s.data[id] = history
	}

	history.versions = append(history.versions, Version{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		StoredAt:    now,
	})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.versions) > s.maxHistory {
		over := len(history.versions) - s.maxHistory
		history.versions = history.versions[over:]
	}

	// Enforce retention by age. The newest revision is always kept.
	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		i := 0
		for ; i < len(history.versions)-1; i++ {
			if !history.versions[i].StoredAt.Before(cutoff) {
				break
			}
		}
		history.versions = history.versions[i:]
	}
	return nil
}

// Get returns the newest revision.
func (s *MemoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[bucket+"/"+key]
	if !ok || len(history.versions) == 0 {
		return nil, ErrNotFound
	}
	latest := history.versions[len(history.versions)-1]
	return append([]byte(nil), latest.Data...), nil
}

// Versions returns the retained revisions stored between from and to
// (inclusive), oldest first.
func (s *MemoryStore) Versions(bucket, key string, from, to time.Time) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[bucket+"/"+key]
	if !ok || len(history.versions) == 0 {
		return nil, ErrNotFound
	}

	var result []Version
	for _, v := range history.versions {
		if !v.StoredAt.Before(from) && !v.StoredAt.After(to) {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
