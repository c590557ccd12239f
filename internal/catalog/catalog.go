// Package catalog is the record store: it reads and writes OutfitRecords as JSON
// blobs and caches parsed records in memory.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/storage"
)

var (
	// ErrCatalogUnavailable means the blob store could not be listed or read at all.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrRecordExists is returned by Save when a record with the same id is stored.
	ErrRecordExists = errors.New("record already exists")
)

const (
	defaultCacheSize = 10000
	defaultCacheTTL  = 30 * time.Minute
)

// blobKey identifies one version of a stored blob. A rewritten blob gets a new key,
// so cached records never go stale.
//
// ETag covers rewrites that keep the size within one ModifiedAt tick, which S3's
// one-second LastModified makes likely.
type blobKey struct {
	ID       string
	Modified int64
	Size     int64
	ETag     string
}

func keyOf(b storage.BlobInfo) blobKey {
	return blobKey{ID: b.ID, Modified: b.ModifiedAt.UnixNano(), Size: b.Size, ETag: b.ETag}
}

// GetCacheKey implements the gocache key generator interface.
func (k blobKey) GetCacheKey() string {
	return k.ID + "|" + strconv.FormatInt(k.Modified, 10) + "|" + strconv.FormatInt(k.Size, 10) + "|" + k.ETag
}

// Catalog is the record store over a BlobStore.
type Catalog struct {
	blobs     storage.BlobStore
	records   *cache.LoadableCache[*models.OutfitRecord]
	logger    *zap.Logger
	now       func() time.Time
	cacheSize int64
	cacheTTL  time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize sets the maximum number of parsed records kept in memory.
func WithCacheSize(n int64) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithCacheTTL sets how long a parsed record stays cached.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.cacheTTL = d
		}
	}
}

// WithClock sets the time source for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Catalog over blobs.
func New(blobs storage.BlobStore, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		blobs:     blobs,
		logger:    zap.NewNop(),
		now:       time.Now,
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: c.cacheSize * 10,
		MaxCost:     c.cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (*models.OutfitRecord, []store.Option, error) {
		k, ok := key.(blobKey)
		if !ok {
			return nil, nil, fmt.Errorf("invalid key type provided to record cache: expected blobKey, got %T", key)
		}
		rec, err := c.load(ctx, k.ID)
		if err != nil {
			return nil, nil, err
		}
		return rec, []store.Option{store.WithCost(1), store.WithExpiration(c.cacheTTL)}, nil
	}

	c.records = cache.NewLoadable[*models.OutfitRecord](
		loadFunction,
		cache.New[*models.OutfitRecord](ristrettoStore),
	)
	return c, nil
}

// load reads and parses one record blob, bypassing the cache.
func (c *Catalog) load(ctx context.Context, id string) (*models.OutfitRecord, error) {
	data, err := c.blobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrRecordNotFound, id)
		}
		return nil, err
	}
	rec, err := models.ParseRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.ID != id {
		c.logger.Debug("record id differs from blob id, using blob id",
			zap.String("record_id", rec.ID), zap.String("blob_id", id))
		rec.ID = id
	}
	return rec, nil
}

// IDs returns every record id, sorted.
func (c *Catalog) IDs(ctx context.Context) ([]string, error) {
	blobs, err := c.blobs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	ids := make([]string, len(blobs))
	for i, b := range blobs {
		ids[i] = b.ID
	}
	return ids, nil
}

// All returns every well-formed record, ordered by id. Malformed or unreadable
// records are skipped with a warning.
func (c *Catalog) All(ctx context.Context) ([]*models.OutfitRecord, error) {
	blobs, err := c.blobs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	records := make([]*models.OutfitRecord, 0, len(blobs))
	var failed int
	for _, b := range blobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := c.records.Get(ctx, keyOf(b))
		if err != nil {
			if !errors.Is(err, models.ErrMalformedRecord) && !errors.Is(err, models.ErrRecordNotFound) {
				failed++
			}
			c.logger.Warn("skipping record", zap.String("record_id", b.ID), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if failed > 0 && failed == len(blobs) {
		return nil, fmt.Errorf("%w: all %d record reads failed", ErrCatalogUnavailable, failed)
	}
	return records, nil
}

// Get returns the record for id, or models.ErrRecordNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*models.OutfitRecord, error) {
	return c.load(ctx, id)
}

// GetMany returns the well-formed records among ids, in the order given. Missing and
// malformed records are skipped.
func (c *Catalog) GetMany(ctx context.Context, ids []string) ([]*models.OutfitRecord, error) {
	out := make([]*models.OutfitRecord, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := c.load(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				c.logger.Debug("indexed record missing from catalog", zap.String("record_id", id))
			} else {
				c.logger.Warn("skipping record", zap.String("record_id", id), zap.Error(err))
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Exists reports whether a record is stored under id.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := c.blobs.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return ok, nil
}

// Save stores a new record. It returns ErrRecordExists if the id is taken.
func (c *Catalog) Save(ctx context.Context, rec *models.OutfitRecord) (string, error) {
	exists, err := c.Exists(ctx, rec.ID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrRecordExists, rec.ID)
	}
	return c.Put(ctx, rec)
}

// Put stores rec, replacing any record with the same id.
func (c *Catalog) Put(ctx context.Context, rec *models.OutfitRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}
	url, err := c.blobs.Put(ctx, rec.ID, data)
	if err != nil {
		return "", fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	return url, nil
}

// UpdateTags replaces the situation tags of a record and bumps UpdatedAt.
func (c *Catalog) UpdateTags(ctx context.Context, id string, tags []string) (*models.OutfitRecord, error) {
	rec, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.SituationTags = models.NormalizeTags(tags)
	rec.UpdatedAt = c.now().UTC()
	if _, err := c.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record for id and reports whether it existed.
func (c *Catalog) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.blobs.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return ok, nil
}

// Count returns the number of stored records, well-formed or not.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	ids, err := c.IDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Close stops the cache and closes the blob store. Calls after the first are no-ops.
func (c *Catalog) Close() error {
	c.closeOnce.Do(func() {
		cerr := c.records.Close()
		berr := c.blobs.Close()
		c.closeErr = errors.Join(cerr, berr)
	})
	return c.closeErr
}
