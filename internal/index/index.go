// Package index maintains inverted indexes from normalized keywords (situation,
// garment, color, styling) to record ids, stored as sets in the key-value store.
//
// The index is a rebuildable cache over the catalog. Lookups never fail: when the
// key-value store is unreachable they log and return nothing, and callers fall back
// to scanning the catalog.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/models"
)

// Kind is an index key space.
type Kind string

const (
	KindSituation Kind = "situation"
	KindGarment   Kind = "item"
	KindColor     Kind = "color"
	KindStyling   Kind = "styling"
)

// Kinds lists every index kind.
var Kinds = []Kind{KindSituation, KindGarment, KindColor, KindStyling}

const (
	keyPrefix     = "outfit:idx:"
	metaPrefix    = keyPrefix + "meta:"
	membersPrefix = keyPrefix + "members:"
)

// RecordSource lists the records the index is built from.
type RecordSource interface {
	All(ctx context.Context) ([]*models.OutfitRecord, error)
}

// RebuildStats reports what RebuildAll did.
type RebuildStats struct {
	Scanned int `json:"scanned"`
	Indexed int `json:"indexed"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Index is the attribute index.
type Index struct {
	kv        kvstore.Store
	extractor keyword.Extractor
	source    RecordSource
	logger    *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New creates an Index over kv, extracting keywords with extractor and rebuilding from source.
func New(kv kvstore.Store, extractor keyword.Extractor, source RecordSource, opts ...Option) *Index {
	ix := &Index{kv: kv, extractor: extractor, source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func setKey(kind Kind, kw string) string {
	return keyPrefix + string(kind) + ":" + kw
}

// Keywords returns the normalized keywords rec is indexed under, per kind.
func (ix *Index) Keywords(rec *models.OutfitRecord) map[Kind][]string {
	out := make(map[Kind][]string, len(Kinds))
	add := func(kind Kind, kws ...string) {
		for _, kw := range kws {
			if kw == "" {
				continue
			}
			found := false
			for _, existing := range out[kind] {
				if existing == kw {
					found = true
					break
				}
			}
			if !found {
				out[kind] = append(out[kind], kw)
			}
		}
	}

	for _, tag := range rec.SituationTags {
		add(KindSituation, keyword.Normalize(tag))
	}
	for _, slot := range models.Slots {
		g, ok := rec.Garment(slot)
		if !ok {
			continue
		}
		add(KindGarment, ix.extractor.Garments(g.Name)...)
		if g.Color != "" {
			add(KindColor, keyword.Normalize(g.Color))
			add(KindColor, ix.extractor.Colors(g.Color)...)
		}
	}
	for _, dim := range rec.StylingDimensions() {
		add(KindStyling, ix.extractor.Styling(rec.StylingMethod[dim])...)
	}
	return out
}

// AddRecord indexes rec, replacing any memberships from a previous version of it.
func (ix *Index) AddRecord(ctx context.Context, rec *models.OutfitRecord) error {
	if err := ix.removeMemberships(ctx, rec.ID); err != nil {
		return err
	}
	var members []string
	keywords := ix.Keywords(rec)
	for _, kind := range Kinds {
		for _, kw := range keywords[kind] {
			if err := ix.kv.SAdd(ctx, setKey(kind, kw), rec.ID); err != nil {
				return fmt.Errorf("failed to index %s: %w", rec.ID, err)
			}
			members = append(members, setKey(kind, kw))
		}
	}
	if err := ix.kv.SAdd(ctx, membersPrefix+rec.ID, members...); err != nil {
		return fmt.Errorf("failed to index %s: %w", rec.ID, err)
	}
	if err := ix.kv.Set(ctx, metaPrefix+rec.ID, stamp(rec), 0); err != nil {
		return fmt.Errorf("failed to index %s: %w", rec.ID, err)
	}
	return nil
}

// Current reports whether rec is indexed at its present UpdatedAt.
func (ix *Index) Current(ctx context.Context, rec *models.OutfitRecord) (bool, error) {
	prev, err := ix.kv.Get(ctx, metaPrefix+rec.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read index metadata: %w", err)
	}
	return prev == stamp(rec), nil
}

// RemoveRecord removes every index entry for id.
func (ix *Index) RemoveRecord(ctx context.Context, id string) error {
	if err := ix.removeMemberships(ctx, id); err != nil {
		return err
	}
	if err := ix.kv.Del(ctx, metaPrefix+id); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", id, err)
	}
	return nil
}

func (ix *Index) removeMemberships(ctx context.Context, id string) error {
	keys, err := ix.kv.SMembers(ctx, membersPrefix+id)
	if err != nil {
		return fmt.Errorf("failed to unindex %s: %w", id, err)
	}
	for _, k := range keys {
		if err := ix.kv.SRem(ctx, k, id); err != nil {
			return fmt.Errorf("failed to unindex %s: %w", id, err)
		}
	}
	if err := ix.kv.Del(ctx, membersPrefix+id); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", id, err)
	}
	return nil
}

// RebuildAll brings the index in line with the catalog. With force it clears every
// index key and re-adds all records. Otherwise it indexes records with no metadata
// entry, re-indexes records whose UpdatedAt differs from the stored stamp, and
// removes ids no longer in the catalog.
func (ix *Index) RebuildAll(ctx context.Context, force bool) (RebuildStats, error) {
	var stats RebuildStats
	records, err := ix.source.All(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list records: %w", err)
	}
	stats.Scanned = len(records)
	start := time.Now()

	if force {
		keys, err := ix.kv.Keys(ctx, keyPrefix+"*")
		if err != nil {
			return stats, fmt.Errorf("failed to clear index: %w", err)
		}
		if err := ix.kv.Del(ctx, keys...); err != nil {
			return stats, fmt.Errorf("failed to clear index: %w", err)
		}
		for _, rec := range records {
			if err := ix.AddRecord(ctx, rec); err != nil {
				return stats, err
			}
			stats.Indexed++
		}
		ix.logger.Info("index rebuilt",
			zap.Bool("force", true),
			zap.Int("scanned", stats.Scanned),
			zap.Int("indexed", stats.Indexed),
			zap.Duration("elapsed", time.Since(start)))
		return stats, nil
	}

	indexed, err := ix.IndexedIDs(ctx)
	if err != nil {
		return stats, err
	}
	inCatalog := make(map[string]struct{}, len(records))
	for _, rec := range records {
		inCatalog[rec.ID] = struct{}{}
		prev, err := ix.kv.Get(ctx, metaPrefix+rec.ID)
		if err != nil {
			return stats, fmt.Errorf("failed to read index metadata: %w", err)
		}
		switch {
		case prev == "":
			if err := ix.AddRecord(ctx, rec); err != nil {
				return stats, err
			}
			stats.Indexed++
		case prev != stamp(rec):
			if err := ix.AddRecord(ctx, rec); err != nil {
				return stats, err
			}
			stats.Updated++
		}
	}
	for _, id := range indexed {
		if _, ok := inCatalog[id]; ok {
			continue
		}
		if err := ix.RemoveRecord(ctx, id); err != nil {
			return stats, err
		}
		stats.Removed++
	}
	ix.logger.Info("index synced",
		zap.Bool("force", false),
		zap.Int("scanned", stats.Scanned),
		zap.Int("indexed", stats.Indexed),
		zap.Int("updated", stats.Updated),
		zap.Int("removed", stats.Removed),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

// IndexedIDs returns the ids that have an index metadata entry, sorted.
func (ix *Index) IndexedIDs(ctx context.Context) ([]string, error) {
	keys, err := ix.kv.Keys(ctx, metaPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed ids: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, metaPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// Query returns up to limit ids indexed under (kind, keyword), sorted. limit <= 0
// means no limit.
func (ix *Index) Query(ctx context.Context, kind Kind, kw string, limit int) []string {
	ids, err := ix.kv.SMembers(ctx, setKey(kind, keyword.Normalize(kw)))
	if err != nil {
		ix.warn("index query failed", err, zap.String("kind", string(kind)), zap.String("keyword", kw))
		return nil
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// QueryIntersection ORs keywords within each non-empty category and ANDs across
// categories. The result is sorted. Empty criteria, an empty intersection, or an
// unreachable store all yield nil.
func (ix *Index) QueryIntersection(ctx context.Context, c Criteria) []string {
	var result map[string]struct{}
	for _, group := range c.groups() {
		union := make(map[string]struct{})
		for _, kw := range group.keywords {
			ids, err := ix.kv.SMembers(ctx, setKey(group.kind, keyword.Normalize(kw)))
			if err != nil {
				ix.warn("index intersection failed", err, zap.String("kind", string(group.kind)), zap.String("keyword", kw))
				return nil
			}
			for _, id := range ids {
				union[id] = struct{}{}
			}
		}
		if result == nil {
			result = union
		} else {
			for id := range result {
				if _, ok := union[id]; !ok {
					delete(result, id)
				}
			}
		}
		if len(result) == 0 {
			return nil
		}
	}
	if len(result) == 0 {
		return nil
	}
	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns the number of keywords per kind and the number of indexed records.
func (ix *Index) Stats(ctx context.Context) (map[Kind]int, int, error) {
	counts := make(map[Kind]int, len(Kinds))
	for _, kind := range Kinds {
		keys, err := ix.kv.Keys(ctx, setKey(kind, "*"))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read index stats: %w", err)
		}
		counts[kind] = len(keys)
	}
	ids, err := ix.IndexedIDs(ctx)
	if err != nil {
		return nil, 0, err
	}
	return counts, len(ids), nil
}

func (ix *Index) warn(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, kvstore.ErrUnavailable) {
		fields = append(fields, zap.Bool("degraded", true))
	}
	ix.logger.Warn(msg, fields...)
}

// stamp is the analysis timestamp stored as index metadata.
func stamp(rec *models.OutfitRecord) string {
	return rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
}
