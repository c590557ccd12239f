// Package search finds and selects the outfit record that best answers a match request.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
)

// Finder defaults.
const (
	DefaultMinScore      = 0.05
	DefaultMaxCandidates = 15
)

// RecordReader reads records from the catalog.
type RecordReader interface {
	All(ctx context.Context) ([]*models.OutfitRecord, error)
	GetMany(ctx context.Context, ids []string) ([]*models.OutfitRecord, error)
}

// IndexReader looks up candidate ids by attribute.
type IndexReader interface {
	QueryIntersection(ctx context.Context, c index.Criteria) []string
}

// Candidates is the outcome of Find.
type Candidates struct {
	Query *ranking.AnalyzedQuery
	// Criteria are the index criteria derived from the request.
	Criteria index.Criteria
	// Top holds at most MaxCandidates entries of Ranked.
	Top []ranking.ScoredRecord
	// Ranked holds every scored candidate at or above the minimum score that is not
	// excluded, best first.
	Ranked []ranking.ScoredRecord
	// Scored holds every candidate that was scored, unfiltered, in catalog order.
	Scored []ranking.ScoredRecord
	// AllIDs lists the ids in Scored.
	AllIDs []string
	// Path is models.PathIndex or models.PathFullScan.
	Path string
}

// Complete reports whether Scored covers the whole catalog.
func (c *Candidates) Complete() bool {
	return c.Path == models.PathFullScan
}

// Finder produces ranked candidates for a request.
type Finder struct {
	records       RecordReader
	index         IndexReader
	calc          *ranking.Calculator
	extractor     keyword.Extractor
	minScore      float64
	maxCandidates int
	logger        *zap.Logger
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithMinScore sets the minimum score a candidate needs.
func WithMinScore(s float64) FinderOption {
	return func(f *Finder) {
		if s > 0 {
			f.minScore = s
		}
	}
}

// WithMaxCandidates sets the number of top candidates returned.
func WithMaxCandidates(n int) FinderOption {
	return func(f *Finder) {
		if n > 0 {
			f.maxCandidates = n
		}
	}
}

// WithFinderLogger sets the logger.
func WithFinderLogger(l *zap.Logger) FinderOption {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFinder creates a Finder. ix may be nil, in which case every lookup is a full scan.
func NewFinder(records RecordReader, ix IndexReader, calc *ranking.Calculator, extractor keyword.Extractor, opts ...FinderOption) *Finder {
	f := &Finder{
		records:       records,
		index:         ix,
		calc:          calc,
		extractor:     extractor,
		minScore:      DefaultMinScore,
		maxCandidates: DefaultMaxCandidates,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find scores the records selected through the index, falling back to the whole
// catalog when the index path yields no candidate. Only a catalog failure on the
// full-scan path is returned as an error.
func (f *Finder) Find(ctx context.Context, q models.MatchQuery) (*Candidates, error) {
	start := time.Now()
	aq := f.calc.Analyze(q)
	criteria := index.DeriveCriteria(f.extractor, q.Text)

	if cands := f.fromIndex(ctx, aq, criteria); cands != nil && len(cands.Ranked) > 0 {
		f.logger.Debug("candidates found",
			zap.String("path", cands.Path),
			zap.Int("scored", len(cands.Scored)),
			zap.Int("ranked", len(cands.Ranked)),
			zap.Duration("elapsed", time.Since(start)))
		return cands, nil
	}

	cands, err := f.fullScan(ctx, aq, criteria)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("candidates found",
		zap.String("path", cands.Path),
		zap.Int("scored", len(cands.Scored)),
		zap.Int("ranked", len(cands.Ranked)),
		zap.Duration("elapsed", time.Since(start)))
	return cands, nil
}

// fromIndex returns nil when the criteria are empty, the intersection is empty, the
// index is unavailable, or the indexed records cannot be read.
func (f *Finder) fromIndex(ctx context.Context, aq *ranking.AnalyzedQuery, criteria index.Criteria) *Candidates {
	if f.index == nil || criteria.IsEmpty() {
		return nil
	}
	ids := f.index.QueryIntersection(ctx, criteria)
	if len(ids) == 0 {
		return nil
	}
	records, err := f.records.GetMany(ctx, ids)
	if err != nil {
		f.logger.Warn("failed to read indexed records", zap.Int("ids", len(ids)), zap.Error(err))
		return nil
	}
	return f.rank(aq, criteria, records, models.PathIndex)
}

func (f *Finder) fullScan(ctx context.Context, aq *ranking.AnalyzedQuery, criteria index.Criteria) (*Candidates, error) {
	records, err := f.records.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog: %w", err)
	}
	return f.rank(aq, criteria, records, models.PathFullScan), nil
}

func (f *Finder) rank(aq *ranking.AnalyzedQuery, criteria index.Criteria, records []*models.OutfitRecord, path string) *Candidates {
	scored := f.calc.Rank(aq, records)
	cands := &Candidates{
		Query:    aq,
		Criteria: criteria,
		Scored:   scored,
		AllIDs:   make([]string, len(scored)),
		Path:     path,
	}
	for i, s := range scored {
		cands.AllIDs[i] = s.Record.ID
		if s.Excluded() || s.Score < f.minScore {
			continue
		}
		cands.Ranked = append(cands.Ranked, s)
	}
	ranking.SortScored(cands.Ranked)
	cands.Top = cands.Ranked
	if len(cands.Top) > f.maxCandidates {
		cands.Top = cands.Top[:f.maxCandidates]
	}
	return cands
}
