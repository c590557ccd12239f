// Package storage defines the blob store that persists outfit record JSON, with
// S3/R2, SQLite and in-memory backends.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no blob exists for an id.
var ErrNotFound = errors.New("blob not found")

// BlobInfo describes one stored blob.
type BlobInfo struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	// ETag changes whenever the content does, even within one ModifiedAt tick.
	ETag string `json:"etag,omitempty"`
}

// ContentETag returns the entity tag the memory and SQLite stores assign to data.
func ContentETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// BlobStore is the system of record for record JSON, keyed by record id.
type BlobStore interface {
	// List returns every blob whose id starts with prefix, ordered by id.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	// Get returns the blob for id, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores data under id, replacing any existing blob, and returns its URL.
	Put(ctx context.Context, id string, data []byte) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Delete removes the blob and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	Close() error
}
