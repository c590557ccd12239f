package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/selection"
)

// Catalog is the record store the engine matches against.
type Catalog interface {
	RecordReader
	Count(ctx context.Context) (int, error)
}

// Selector picks one record from the candidates.
type Selector interface {
	Select(ctx context.Context, in selection.Input) *selection.Choice
}

// Engine answers match requests: find candidates, select one, report it.
type Engine struct {
	catalog  Catalog
	finder   *Finder
	selector Selector
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a match engine with the given dependencies.
func NewEngine(catalog Catalog, finder *Finder, selector Selector, opts ...EngineOption) *Engine {
	e := &Engine{catalog: catalog, finder: finder, selector: selector, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match returns the one record chosen for q. Nothing to offer is reported through
// MatchResult.Found and Reason with a nil error; an error means the request could
// not be served at all.
func (e *Engine) Match(ctx context.Context, q models.MatchQuery) (*models.MatchResult, error) {
	start := time.Now()
	if err := ProcessQuery(&q); err != nil {
		return nil, err
	}
	result := &models.MatchResult{SessionID: q.SessionID, Role: q.Role}

	n, err := e.catalog.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("match failed: %w", err)
	}
	if n == 0 {
		result.Reason = models.ReasonEmptyCatalog
		return result, nil
	}

	cands, err := e.finder.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("match failed: %w", err)
	}
	result.Path = cands.Path
	result.CandidateCount = len(cands.Ranked)

	choice := e.selector.Select(ctx, selection.Input{
		Session:  q.SessionID,
		Role:     q.Role,
		Query:    cands.Query,
		Ranked:   cands.Top,
		Scored:   cands.Scored,
		Complete: cands.Complete(),
	})
	if choice == nil {
		result.Reason = models.ReasonNoCandidates
		e.logger.Info("no match",
			zap.String("session_id", q.SessionID),
			zap.String("path", cands.Path),
			zap.Duration("elapsed", time.Since(start)))
		return result, nil
	}

	result.Found = true
	result.Record = choice.Record.Record
	result.Score = choice.Record.Score
	if choice.Record.Breakdown != nil {
		result.Contributions = choice.Record.Breakdown.Contributions
	}
	e.logger.Info("match",
		zap.String("session_id", q.SessionID),
		zap.String("record_id", result.Record.ID),
		zap.String("role", string(q.Role)),
		zap.String("path", cands.Path),
		zap.Int("candidates", result.CandidateCount),
		zap.String("band", string(choice.Band)),
		zap.Float64("score", result.Score),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
