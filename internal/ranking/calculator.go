package ranking

import (
	"math"
	"time"

	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/models"
)

// Calculator combines all scorers into the outfit score.
type Calculator struct {
	config     *RankingConfig
	analyzer   *QueryAnalyzer
	scorers    []Scorer
	restricted []string
	season     string
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*calculatorOptions)

type calculatorOptions struct {
	now func() time.Time
}

// WithClock sets the clock used to resolve SeasonAuto.
func WithClock(now func() time.Time) CalculatorOption {
	return func(o *calculatorOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewCalculator creates a new Calculator with the given configuration. The serving
// season is resolved once, here.
func NewCalculator(config *RankingConfig, extractor keyword.Extractor, opts ...CalculatorOption) *Calculator {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	o := calculatorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	season := config.ResolveSeason(o.now())
	return &Calculator{
		config:   config,
		analyzer: NewQueryAnalyzer(extractor, config.FormalKeywords),
		scorers: []Scorer{
			NewSeasonScorer(config, season),
			NewColorHarmonyScorer(config),
			NewSituationScorer(config),
			NewItemScorer(config),
			NewStylingScorer(config),
			NewDiversityScorer(config),
			NewOccasionScorer(config),
		},
		restricted: normalizeTerms(config.GenderRestrictedTerms),
		season:     season,
	}
}

// Season returns the serving season.
func (c *Calculator) Season() string {
	return c.season
}

// Analyze derives the analyzed form of q.
func (c *Calculator) Analyze(q models.MatchQuery) *AnalyzedQuery {
	return c.analyzer.Analyze(q)
}

// Score returns the score of rec for query.
func (c *Calculator) Score(query *AnalyzedQuery, rec *models.OutfitRecord) float64 {
	return c.ScoreWithBreakdown(query, rec).FinalScore
}

// ScoreWithBreakdown returns the score of rec for query along with every contribution.
func (c *Calculator) ScoreWithBreakdown(query *AnalyzedQuery, rec *models.OutfitRecord) *ScoreBreakdown {
	ctx := NewScoringContext(query, rec)
	breakdown := NewScoreBreakdown()

	if c.restrictedGarment(ctx) {
		breakdown.FinalScore = c.config.ExclusionScore
		breakdown.RawScore = c.config.ExclusionScore
		breakdown.Excluded = true
		breakdown.ExclusionReason = ExcludedGenderRestricted
		return breakdown
	}

	raw := 0.0
	for _, s := range c.scorers {
		v := s.Score(ctx)
		breakdown.Contributions[s.Name()] = v
		raw += v
		if ex, ok := s.(Excluder); ok && !breakdown.Excluded {
			if excluded, reason := ex.Excludes(ctx); excluded {
				breakdown.Excluded = true
				breakdown.ExclusionReason = reason
			}
		}
	}

	breakdown.RawScore = raw
	breakdown.FinalScore = math.Min(raw, c.config.MaxScore)
	return breakdown
}

// Rank scores every record and returns them in input order.
func (c *Calculator) Rank(query *AnalyzedQuery, records []*models.OutfitRecord) []ScoredRecord {
	out := make([]ScoredRecord, 0, len(records))
	for _, rec := range records {
		b := c.ScoreWithBreakdown(query, rec)
		out = append(out, ScoredRecord{Record: rec, Score: b.FinalScore, Breakdown: b})
	}
	return out
}

func (c *Calculator) restrictedGarment(ctx *ScoringContext) bool {
	for _, slot := range models.Slots {
		g, ok := ctx.Garment(slot)
		if !ok {
			continue
		}
		if containsAny(g.Name, c.restricted) || containsAny(g.Material, c.restricted) || containsAny(g.Fit, c.restricted) {
			return true
		}
	}
	return false
}

func normalizedGarments(rec *models.OutfitRecord) map[models.Slot]models.GarmentAttributes {
	out := make(map[models.Slot]models.GarmentAttributes, len(models.Slots))
	for _, slot := range models.Slots {
		g, ok := rec.Garment(slot)
		if !ok {
			continue
		}
		out[slot] = models.GarmentAttributes{
			Name:     keyword.Normalize(g.Name),
			Color:    keyword.Normalize(g.Color),
			Fit:      keyword.Normalize(g.Fit),
			Material: keyword.Normalize(g.Material),
		}
	}
	return out
}
