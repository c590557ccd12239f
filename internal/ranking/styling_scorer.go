package ranking

import (
	"strings"

	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/models"
)

// StylingScorer rewards styling method values mentioned in the request.
type StylingScorer struct {
	config *RankingConfig
	major  map[string]struct{}
}

// NewStylingScorer creates a new StylingScorer with the given config.
func NewStylingScorer(config *RankingConfig) *StylingScorer {
	major := make(map[string]struct{}, len(config.MajorStylingFields))
	for _, f := range config.MajorStylingFields {
		major[f] = struct{}{}
	}
	return &StylingScorer{config: config, major: major}
}

// Name returns the scorer name.
func (s *StylingScorer) Name() string {
	return ContribStyling
}

// Score adds MajorStylingScore or MinorStylingScore per matching value, plus
// StylistBonus when a style analyst asks about a record with any styling notes.
func (s *StylingScorer) Score(ctx *ScoringContext) float64 {
	if ctx.Query == nil || ctx.Record == nil {
		return 0
	}

	score := 0.0
	if ctx.Query.Text != "" {
		for _, dim := range ctx.Record.StylingDimensions() {
			value := keyword.Normalize(ctx.Record.StylingMethod[dim])
			if value == "" || !strings.Contains(ctx.Query.Text, value) {
				continue
			}
			if _, ok := s.major[dim]; ok {
				score += s.config.MajorStylingScore
			} else {
				score += s.config.MinorStylingScore
			}
		}
	}
	if ctx.Query.Role == models.RoleStyleAnalyst && ctx.Record.StylingEntries() > 0 {
		score += s.config.StylistBonus
	}
	return score
}
