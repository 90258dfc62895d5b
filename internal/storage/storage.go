// Package storage reads and writes the observation table as a single blob
// addressed by bucket and key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-vis/internal/observation"
)

var (
	// ErrNotFound is returned when no object exists under the requested key.
	ErrNotFound = errors.New("object not found")
	// ErrNoHistory is returned by History when the backend keeps only the
	// latest object.
	ErrNoHistory = errors.New("storage backend keeps no history")
)

// ContentTypeCSV is the content type stored alongside table blobs.
const ContentTypeCSV = "text/csv"

// BlobStore is a whole-object store. Reads and writes are never partial.
type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// versioned is implemented by backends that retain earlier revisions.
type versioned interface {
	Versions(bucket, key string, from, to time.Time) ([]Version, error)
}

// Revision summarises one retained revision of the table.
type Revision struct {
	StoredAt time.Time `json:"stored_at"`
	Bytes    int       `json:"bytes"`
	Rows     int       `json:"rows"`
	Cities   []string  `json:"cities"`
}

// TableStore persists an observation table as CSV under one bucket/key.
type TableStore struct {
	blobs  BlobStore
	bucket string
	key    string
}

// NewTableStore creates a TableStore.
func NewTableStore(blobs BlobStore, bucket, key string) *TableStore {
	return &TableStore{blobs: blobs, bucket: bucket, key: key}
}

// Location returns "bucket/key" for logging.
func (s *TableStore) Location() string {
	return s.bucket + "/" + s.key
}

// Load reads and decodes the stored table.
func (s *TableStore) Load(ctx context.Context) (*observation.Table, error) {
	data, err := s.blobs.Get(ctx, s.bucket, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Location(), err)
	}
	table, err := observation.UnmarshalCSV(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Location(), err)
	}
	return table, nil
}

// Save encodes and writes the table, replacing any previous object.
func (s *TableStore) Save(ctx context.Context, table *observation.Table) error {
	data, err := observation.MarshalCSV(table)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if err := s.blobs.Put(ctx, s.bucket, s.key, data, ContentTypeCSV); err != nil {
		return fmt.Errorf("write %s: %w", s.Location(), err)
	}
	return nil
}

// History lists the revisions of the table stored between from and to,
// oldest first. It returns ErrNoHistory when the backend keeps no earlier
// revisions and an empty slice when none fall in the range.
func (s *TableStore) History(ctx context.Context, from, to time.Time) ([]Revision, error) {
	vs, ok := s.blobs.(versioned)
	if !ok {
		return nil, ErrNoHistory
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	versions, err := vs.Versions(s.bucket, s.key, from, to)
	if errors.Is(err, ErrNotFound) {
		return []Revision{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", s.Location(), err)
	}

	out := make([]Revision, 0, len(versions))
	for _, v := range versions {
		table, err := observation.UnmarshalCSV(v.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s revision at %s: %w", s.Location(), v.StoredAt.Format(time.RFC3339), err)
		}
		out = append(out, Revision{
			StoredAt: v.StoredAt.UTC(),
			Bytes:    len(v.Data),
			Rows:     table.Len(),
			Cities:   table.Cities(),
		})
	}
	return out, nil
}
