package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and configures a blob store backend.
type Options struct {
	Backend     string
	Dir         string
	S3          S3Options
	PostgresDSN string

	// Retention for the memory backend.
	MemoryMaxHistory int
	MemoryMaxAge     time.Duration
}

// Open builds the configured BlobStore. The returned closer is never nil.
func Open(ctx context.Context, opts Options) (BlobStore, io.Closer, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir), nopCloser{}, nil
	case BackendS3:
		s, err := NewS3Store(ctx, opts.S3)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case BackendPostgres:
		s, err := OpenPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BackendMemory:
		return NewMemoryStore(opts.MemoryMaxHistory, opts.MemoryMaxAge, nil), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
