package ranking

import "github.com/hyperjump/outfitter/internal/models"

// SeasonScorer rewards garments suited to the serving season and penalizes ones
// that are not. Only the top and bottom names are inspected.
type SeasonScorer struct {
	config        *RankingConfig
	inappropriate []string
	appropriate   []string
}

// NewSeasonScorer creates a SeasonScorer for season.
func NewSeasonScorer(config *RankingConfig, season string) *SeasonScorer {
	profile := config.SeasonProfiles[season]
	return &SeasonScorer{
		config:        config,
		inappropriate: normalizeTerms(profile.Inappropriate),
		appropriate:   normalizeTerms(profile.Appropriate),
	}
}

// Name returns the scorer name.
func (s *SeasonScorer) Name() string {
	return ContribSeason
}

// Score applies the penalty and the bonus independently, each at most once.
func (s *SeasonScorer) Score(ctx *ScoringContext) float64 {
	var names []string
	for _, slot := range []models.Slot{models.SlotTop, models.SlotBottom} {
		if g, ok := ctx.Garment(slot); ok && g.Name != "" {
			names = append(names, g.Name)
		}
	}

	score := 0.0
	if anyContains(names, s.inappropriate) {
		score += s.config.SeasonPenalty
	}
	if anyContains(names, s.appropriate) {
		score += s.config.SeasonBonus
	}
	return score
}

func anyContains(texts, terms []string) bool {
	for _, t := range texts {
		if containsAny(t, terms) {
			return true
		}
	}
	return false
}
