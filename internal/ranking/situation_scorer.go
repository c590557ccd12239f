package ranking

import (
	"strings"

	"github.com/hyperjump/outfitter/internal/keyword"
)

// SituationScorer scores how well a record's situation tags fit the request.
type SituationScorer struct {
	config *RankingConfig
}

// NewSituationScorer creates a new SituationScorer with the given config.
func NewSituationScorer(config *RankingConfig) *SituationScorer {
	return &SituationScorer{config: config}
}

// Name returns the scorer name.
func (s *SituationScorer) Name() string {
	return ContribSituation
}

// Score returns SituationTagScore as soon as one of the record's tags appears in the
// expanded request. Otherwise it adds SituationTriggerScore once when a category the
// request triggers is among the record's tags, and SituationTaggedBonus when the
// record has any tags.
func (s *SituationScorer) Score(ctx *ScoringContext) float64 {
	if ctx.Query == nil || ctx.Record == nil {
		return 0
	}

	tags := make(map[string]struct{}, len(ctx.Record.SituationTags))
	for _, tag := range ctx.Record.SituationTags {
		n := keyword.Normalize(tag)
		if n == "" {
			continue
		}
		if strings.Contains(ctx.Query.Expanded, n) {
			return s.config.SituationTagScore
		}
		tags[n] = struct{}{}
	}

	score := 0.0
	for _, category := range ctx.Query.Situations {
		if _, ok := tags[category]; ok {
			score += s.config.SituationTriggerScore
			break
		}
	}
	if len(tags) > 0 {
		score += s.config.SituationTaggedBonus
	}
	return score
}
