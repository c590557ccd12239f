// Package selection picks one record from ranked candidates, avoiding repeats within a
// session and mixing in controlled randomness so identical requests vary.
//
// A selection moves through four states: the initial pool of top candidates, the
// pool with the session's recent choices filtered out (widened or softened when that
// leaves too little), the band drawn by weighted chance, and the chosen record.
package selection

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
)

// Band is a score band of the filtered pool.
type Band string

const (
	BandHigh Band = "high"
	BandMid  Band = "mid"
	BandLow  Band = "low"
	// BandAll means every band drawn was empty and the whole pool was used.
	BandAll Band = "all"
	// BandNone means the pool was too small to band.
	BandNone Band = ""
)

// Config holds the selection parameters.
type Config struct {
	PoolSize       int // default: 20
	Lookback       int // default: 20 recent ids filtered out
	StrictLookback int // default: 5 most recent ids, second pass
	MinPool        int // default: 3
	WidenCount     int // default: 10

	HighThreshold float64 // default: 0.6
	MidThreshold  float64 // default: 0.3
	HighWeight    float64 // default: 0.4
	MidWeight     float64 // default: 0.4
	LowWeight     float64 // default: 0.2

	SoftPenalty  float64 // default: 0.1
	HarshPenalty float64 // default: 0.05
}

// DefaultConfig returns the default selection parameters.
func DefaultConfig() Config {
	return Config{
		PoolSize:       20,
		Lookback:       20,
		StrictLookback: 5,
		MinPool:        3,
		WidenCount:     10,
		HighThreshold:  0.6,
		MidThreshold:   0.3,
		HighWeight:     0.4,
		MidWeight:      0.4,
		LowWeight:      0.2,
		SoftPenalty:    0.1,
		HarshPenalty:   0.05,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	for _, f := range []struct{ v, def *int }{
		{&c.PoolSize, &d.PoolSize},
		{&c.Lookback, &d.Lookback},
		{&c.StrictLookback, &d.StrictLookback},
		{&c.MinPool, &d.MinPool},
		{&c.WidenCount, &d.WidenCount},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	for _, f := range []struct{ v, def *float64 }{
		{&c.HighThreshold, &d.HighThreshold},
		{&c.MidThreshold, &d.MidThreshold},
		{&c.HighWeight, &d.HighWeight},
		{&c.MidWeight, &d.MidWeight},
		{&c.LowWeight, &d.LowWeight},
		{&c.SoftPenalty, &d.SoftPenalty},
		{&c.HarshPenalty, &d.HarshPenalty},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
}

// CatalogReader lists every record.
type CatalogReader interface {
	All(ctx context.Context) ([]*models.OutfitRecord, error)
}

// Ranker scores records for a query.
type Ranker interface {
	Rank(q *ranking.AnalyzedQuery, records []*models.OutfitRecord) []ranking.ScoredRecord
}

// Input is what a selection starts from.
type Input struct {
	Session string
	Role    models.ExpertRole
	Query   *ranking.AnalyzedQuery
	// Ranked are the candidates above the minimum score, best first.
	Ranked []ranking.ScoredRecord
	// Scored are all the records scored while finding candidates.
	Scored []ranking.ScoredRecord
	// Complete is set when Scored covers the whole catalog.
	Complete bool
}

// Choice is the outcome of a selection.
type Choice struct {
	Record ranking.ScoredRecord
	// Score is the score used for banding, after any recency penalty.
	Score float64
	Band  Band
	// PoolSize is the size of the initial pool.
	PoolSize int
	// Candidates is the number of records left after recency filtering.
	Candidates int
	Widened    bool
	Softened   bool
}

// Policy is the selection state machine.
type Policy struct {
	cfg     Config
	recency *RecencyWindow
	catalog CatalogReader
	ranker  Ranker
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Policy.
type Option func(*Policy)

// WithConfig sets the selection parameters.
func WithConfig(cfg Config) Option {
	return func(p *Policy) {
		cfg.ApplyDefaults()
		p.cfg = cfg
	}
}

// WithRand sets the random source. Tests pass a seeded PCG.
func WithRand(r *rand.Rand) Option {
	return func(p *Policy) {
		if r != nil {
			p.rng = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPolicy creates a Policy. catalog and ranker supply records to pad and widen the
// pool with; recency may be nil, in which case sessions have no history.
func NewPolicy(recency *RecencyWindow, catalog CatalogReader, ranker Ranker, opts ...Option) *Policy {
	seed := uint64(time.Now().UnixNano())
	p := &Policy{
		cfg:     DefaultConfig(),
		recency: recency,
		catalog: catalog,
		ranker:  ranker,
		logger:  zap.NewNop(),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select chooses one record and records it in the session's recency window. It
// returns nil when no record may be offered at all.
func (p *Policy) Select(ctx context.Context, in Input) *Choice {
	pool := make([]ranking.ScoredRecord, 0, p.cfg.PoolSize)
	for _, s := range in.Ranked {
		if len(pool) == p.cfg.PoolSize {
			break
		}
		pool = append(pool, s)
	}

	var recent []string
	if p.recency != nil {
		recent = p.recency.Recent(ctx, in.Session, p.cfg.Lookback)
	}

	var reservoir []ranking.ScoredRecord
	if len(pool) < p.cfg.PoolSize || fresh(pool, toSet(recent)) < p.cfg.MinPool {
		reservoir = eligible(p.others(ctx, in), pool)
		for len(pool) < p.cfg.PoolSize && len(reservoir) > 0 {
			pool = append(pool, reservoir[0])
			reservoir = reservoir[1:]
		}
	}

	choice := p.Choose(pool, reservoir, recent, in.Role)
	if choice == nil {
		return nil
	}
	if p.recency != nil {
		p.recency.Push(ctx, in.Session, choice.Record.Record.ID)
	}
	p.logger.Debug("record selected",
		zap.String("session_id", in.Session),
		zap.String("record_id", choice.Record.Record.ID),
		zap.String("band", string(choice.Band)),
		zap.Int("pool", choice.PoolSize),
		zap.Int("candidates", choice.Candidates),
		zap.Bool("widened", choice.Widened),
		zap.Bool("softened", choice.Softened))
	return choice
}

// others returns every scored record of the catalog, loading and scoring the catalog
// when the input does not already cover it.
func (p *Policy) others(ctx context.Context, in Input) []ranking.ScoredRecord {
	if in.Complete || p.catalog == nil || p.ranker == nil {
		return in.Scored
	}
	records, err := p.catalog.All(ctx)
	if err != nil {
		p.logger.Warn("failed to widen candidate pool", zap.Error(err))
		return in.Scored
	}
	return p.ranker.Rank(in.Query, records)
}

// Choose runs the state machine over an initial pool. reservoir holds further
// records, best first, that may widen the pool; recent holds the session's recent
// ids, newest first.
func (p *Policy) Choose(pool, reservoir []ranking.ScoredRecord, recent []string, role models.ExpertRole) *Choice {
	if len(pool) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	choice := &Choice{PoolSize: len(pool)}
	recentSet := toSet(recent)

	cands := make([]candidate, 0, len(pool))
	for _, s := range pool {
		if _, ok := recentSet[s.Record.ID]; !ok {
			cands = append(cands, candidate{s, s.Score})
		}
	}

	if len(cands) < p.cfg.MinPool {
		var unused []ranking.ScoredRecord
		for _, s := range reservoir {
			if _, ok := recentSet[s.Record.ID]; !ok {
				unused = append(unused, s)
			}
		}
		p.rng.Shuffle(len(unused), func(i, j int) { unused[i], unused[j] = unused[j], unused[i] })
		if len(unused) > p.cfg.WidenCount {
			unused = unused[:p.cfg.WidenCount]
		}
		for _, s := range unused {
			cands = append(cands, candidate{s, s.Score})
		}
		choice.Widened = len(unused) > 0
	}

	if len(cands) == 0 {
		choice.Softened = true
		cands = p.soften(pool, recent, recentSet)
	}
	choice.Candidates = len(cands)

	if len(cands) >= p.cfg.MinPool {
		choice.Band, cands = p.drawBand(cands)
		cands = roleFilter(role, cands)
	}

	picked := cands[p.rng.IntN(len(cands))]
	choice.Record = picked.ScoredRecord
	choice.Score = picked.score
	return choice
}

type candidate struct {
	ranking.ScoredRecord
	score float64
}

// soften brings back a pool made only of recent records, scaled down by SoftPenalty.
// When even the records outside the strict lookback would leave nothing, every
// record is scaled by HarshPenalty instead.
func (p *Policy) soften(pool []ranking.ScoredRecord, recent []string, recentSet map[string]struct{}) []candidate {
	strict := recent
	if len(strict) > p.cfg.StrictLookback {
		strict = strict[:p.cfg.StrictLookback]
	}
	strictSet := toSet(strict)
	secondPassEmpty := fresh(pool, strictSet) == 0

	out := make([]candidate, 0, len(pool))
	for _, s := range pool {
		score := s.Score
		_, inStrict := strictSet[s.Record.ID]
		_, inRecent := recentSet[s.Record.ID]
		switch {
		case inStrict && secondPassEmpty:
			score *= p.cfg.HarshPenalty
		case inRecent:
			score *= p.cfg.SoftPenalty
		}
		out = append(out, candidate{s, score})
	}
	return out
}

// drawBand picks a band by weight and falls back high, mid, low, then the whole pool
// when the drawn band is empty.
func (p *Policy) drawBand(cands []candidate) (Band, []candidate) {
	bands := map[Band][]candidate{}
	for _, c := range cands {
		switch {
		case c.score >= p.cfg.HighThreshold:
			bands[BandHigh] = append(bands[BandHigh], c)
		case c.score >= p.cfg.MidThreshold:
			bands[BandMid] = append(bands[BandMid], c)
		default:
			bands[BandLow] = append(bands[BandLow], c)
		}
	}

	total := p.cfg.HighWeight + p.cfg.MidWeight + p.cfg.LowWeight
	r := p.rng.Float64() * total
	drawn := BandLow
	switch {
	case r < p.cfg.HighWeight:
		drawn = BandHigh
	case r < p.cfg.HighWeight+p.cfg.MidWeight:
		drawn = BandMid
	}
	if len(bands[drawn]) > 0 {
		return drawn, bands[drawn]
	}
	for _, b := range []Band{BandHigh, BandMid, BandLow} {
		if len(bands[b]) > 0 {
			return b, bands[b]
		}
	}
	return BandAll, cands
}

// roleFilter narrows a band to the records a role prefers. A filter that would empty
// the band is ignored.
func roleFilter(role models.ExpertRole, band []candidate) []candidate {
	var out []candidate
	switch role {
	case models.RoleColorExpert:
		out = keep(band, func(r *models.OutfitRecord) bool { return r.DistinctColors() >= 2 })
	case models.RoleFittingCoordinator:
		out = keep(band, func(r *models.OutfitRecord) bool { return r.DistinctFits() >= 2 })
	case models.RoleStyleAnalyst:
		out = keep(band, func(r *models.OutfitRecord) bool { return r.StylingEntries() >= 2 })
	case models.RoleTrendExpert:
		out = newest(band)
	default:
		return band
	}
	if len(out) == 0 {
		return band
	}
	return out
}

func keep(band []candidate, pred func(*models.OutfitRecord) bool) []candidate {
	var out []candidate
	for _, c := range band {
		if pred(c.Record) {
			out = append(out, c)
		}
	}
	return out
}

// newest returns the most recently added half of band, rounded up.
func newest(band []candidate) []candidate {
	out := make([]candidate, len(band))
	copy(out, band)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Record, out[j].Record
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out[:(len(out)+1)/2]
}

// eligible returns the records outside pool that may still be offered, best first.
func eligible(scored, pool []ranking.ScoredRecord) []ranking.ScoredRecord {
	inPool := make(map[string]struct{}, len(pool))
	for _, s := range pool {
		inPool[s.Record.ID] = struct{}{}
	}
	var out []ranking.ScoredRecord
	for _, s := range scored {
		if _, ok := inPool[s.Record.ID]; ok || s.Excluded() || s.Score < 0 {
			continue
		}
		out = append(out, s)
	}
	ranking.SortScored(out)
	return out
}

// fresh counts the pool records not in set.
func fresh(pool []ranking.ScoredRecord, set map[string]struct{}) int {
	n := 0
	for _, s := range pool {
		if _, ok := set[s.Record.ID]; !ok {
			n++
		}
	}
	return n
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
