package ranking

import "github.com/hyperjump/outfitter/internal/models"

// OccasionScorer penalizes casual garments when the request implies a formal or
// date occasion. A jacket worn with shorts is penalized hard enough to exclude it.
type OccasionScorer struct {
	config         *RankingConfig
	jacket         []string
	shorts         []string
	informalTop    []string
	informalBottom []string
}

// NewOccasionScorer creates a new OccasionScorer with the given config.
func NewOccasionScorer(config *RankingConfig) *OccasionScorer {
	return &OccasionScorer{
		config:         config,
		jacket:         normalizeTerms(config.JacketTerms),
		shorts:         normalizeTerms(config.ShortsTerms),
		informalTop:    normalizeTerms(config.InformalTopTerms),
		informalBottom: normalizeTerms(config.InformalBottomTerms),
	}
}

// Name returns the scorer name.
func (s *OccasionScorer) Name() string {
	return ContribOccasion
}

// Score returns the first applicable penalty. Requests that are not formal score 0.
func (s *OccasionScorer) Score(ctx *ScoringContext) float64 {
	if ctx.Query == nil || !ctx.Query.Formal {
		return 0
	}
	top, _ := ctx.Garment(models.SlotTop)
	bottom, _ := ctx.Garment(models.SlotBottom)

	switch {
	case s.mismatched(top, bottom):
		return s.config.FormalMismatchPenalty
	case containsAny(top.Name, s.informalTop):
		return s.config.InformalTopPenalty
	case containsAny(bottom.Name, s.informalBottom):
		return s.config.InformalBottomPenalty
	default:
		return 0
	}
}

// Excludes reports a jacket-with-shorts record under a formal request.
func (s *OccasionScorer) Excludes(ctx *ScoringContext) (bool, string) {
	if ctx.Query == nil || !ctx.Query.Formal {
		return false, ""
	}
	top, _ := ctx.Garment(models.SlotTop)
	bottom, _ := ctx.Garment(models.SlotBottom)
	if s.mismatched(top, bottom) {
		return true, ExcludedFormalMismatch
	}
	return false, ""
}

func (s *OccasionScorer) mismatched(top, bottom models.GarmentAttributes) bool {
	return containsAny(top.Name, s.jacket) && containsAny(bottom.Name, s.shorts)
}
