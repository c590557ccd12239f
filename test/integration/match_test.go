// Package integration exercises the full ingest, index and match pipeline over a
// SQLite catalog.
package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/config"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/selection"
	"github.com/hyperjump/outfitter/internal/storage"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

const analysisTemplate = `{
  "garments": {
    "top": {"name": "%s", "color": "%s", "fit": "regular"},
    "bottom": {"name": "%s", "color": "%s", "fit": "straight"}
  },
  "styling_method": {"tuck_degree": "full tuck"},
  "situation_tags": ["business"]
}`

type stack struct {
	catalog  *catalog.Catalog
	kv       *kvstore.MemoryStore
	index    *index.Index
	engine   *search.Engine
	ingester *ingest.Ingester
	vision   *llm.MockVision
}

func newStack(t *testing.T, dbPath string) *stack {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	blobs, err := storage.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	cat, err := catalog.New(blobs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	kv := kvstore.NewMemoryStore()
	vocab := keyword.NewVocabulary()
	ix := index.New(kv, vocab, cat)
	calc := ranking.NewCalculator(&cfg.Ranking, vocab)
	finder := search.NewFinder(cat, ix, calc, vocab,
		search.WithMinScore(cfg.Matching.MinScore),
		search.WithMaxCandidates(cfg.Matching.MaxCandidates))
	policy := selection.NewPolicy(selection.NewRecencyWindow(kv), cat, calc,
		selection.WithConfig(cfg.SelectionConfig()))
	vision := llm.NewMockVision()

	return &stack{
		catalog:  cat,
		kv:       kv,
		index:    ix,
		engine:   search.NewEngine(cat, finder, policy),
		ingester: ingest.New(cat, ix, vision),
		vision:   vision,
	}
}

func (s *stack) ingest(t *testing.T, source, top, topColor, bottom, bottomColor string) *models.OutfitRecord {
	t.Helper()
	s.vision.Response = fmt.Sprintf(analysisTemplate, top, topColor, bottom, bottomColor)
	out, err := s.ingester.IngestImage(context.Background(), ingest.Input{Source: source, Image: png})
	require.NoError(t, err)
	return out.Record
}

func TestIntegration_Match(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "records.db")
	s := newStack(t, dbPath)

	s.ingest(t, "inbox/a.jpg", "oxford shirt", "white", "slacks", "navy")
	s.ingest(t, "inbox/b.jpg", "striped shirt", "light blue", "wide slacks", "charcoal gray")
	s.ingest(t, "inbox/c.jpg", "polo shirt", "navy", "pleated slacks", "beige")

	n, err := s.catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	q := models.MatchQuery{Text: "slacks for a business meeting", SessionID: "alice"}
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		res, err := s.engine.Match(ctx, q)
		require.NoError(t, err)
		require.True(t, res.Found, "match %d: %s", i, res.Reason)
		assert.Equal(t, models.PathIndex, res.Path)
		assert.False(t, seen[res.Record.ID], "record %s offered twice in one session", res.Record.ID)
		seen[res.Record.ID] = true
	}
	assert.Len(t, seen, 3)

	// Every record is recent now; the session still gets an answer.
	res, err := s.engine.Match(ctx, q)
	require.NoError(t, err)
	assert.True(t, res.Found)

	// A different session is unaffected by alice's history.
	res, err = s.engine.Match(ctx, models.MatchQuery{Text: q.Text, SessionID: "bob"})
	require.NoError(t, err)
	assert.True(t, res.Found)
}

func TestIntegration_RebuildAfterRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "records.db")

	first := newStack(t, dbPath)
	first.ingest(t, "inbox/a.jpg", "oxford shirt", "white", "slacks", "navy")
	first.ingest(t, "inbox/b.jpg", "denim jacket", "indigo", "chinos", "khaki")
	require.NoError(t, first.catalog.Close())

	// A fresh key-value store knows nothing; the catalog on disk is the source of truth.
	second := newStack(t, dbPath)
	assert.Nil(t, second.index.QueryIntersection(ctx, index.Criteria{Garments: []string{"slacks"}}))

	stats, err := second.index.RebuildAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, index.RebuildStats{Scanned: 2, Indexed: 2}, stats)
	assert.Len(t, second.index.QueryIntersection(ctx, index.Criteria{Garments: []string{"slacks"}}), 1)

	res, err := second.engine.Match(ctx, models.MatchQuery{Text: "chinos"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "denim jacket", res.Record.Garments[models.SlotTop].Name)
}

func TestIntegration_ForceReanalysis(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, filepath.Join(t.TempDir(), "records.db"))

	orig := s.ingest(t, "inbox/a.jpg", "oxford shirt", "white", "slacks", "navy")

	s.vision.Response = fmt.Sprintf(analysisTemplate, "linen shirt", "sage", "slacks", "navy")
	out, err := s.ingester.IngestImage(ctx, ingest.Input{Source: "inbox/a.jpg", Image: png})
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, "oxford shirt", out.Record.Garments[models.SlotTop].Name)

	out, err = s.ingester.IngestImage(ctx, ingest.Input{Source: "inbox/a.jpg", Image: png, Force: true})
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Equal(t, orig.ID, out.Record.ID)
	assert.Equal(t, orig.CreatedAt, out.Record.CreatedAt)

	got, err := s.catalog.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "linen shirt", got.Garments[models.SlotTop].Name)
	assert.Equal(t, []string{orig.ID}, s.index.QueryIntersection(ctx, index.Criteria{Colors: []string{"sage"}}))
}
