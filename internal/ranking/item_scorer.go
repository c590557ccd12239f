package ranking

import (
	"strings"

	"github.com/hyperjump/outfitter/internal/models"
)

// ItemScorer matches garment names, colors and fits against the request text.
type ItemScorer struct {
	config *RankingConfig
}

// NewItemScorer creates a new ItemScorer with the given config.
func NewItemScorer(config *RankingConfig) *ItemScorer {
	return &ItemScorer{config: config}
}

// Name returns the scorer name.
func (s *ItemScorer) Name() string {
	return ContribItem
}

// Score sums per-slot matches. A slot whose "color name" or "name color" appears in
// the request earns CompoundItemScore and skips the individual field checks.
func (s *ItemScorer) Score(ctx *ScoringContext) float64 {
	if ctx.Query == nil || ctx.Query.Text == "" {
		return 0
	}
	text := ctx.Query.Text

	score := 0.0
	for _, slot := range models.Slots {
		g, ok := ctx.Garment(slot)
		if !ok {
			continue
		}
		if g.Name != "" && g.Color != "" &&
			(strings.Contains(text, g.Color+" "+g.Name) || strings.Contains(text, g.Name+" "+g.Color)) {
			score += s.config.CompoundItemScore
			continue
		}
		if g.Name != "" && strings.Contains(text, g.Name) {
			score += s.config.ItemNameScore
		}
		if g.Color != "" && strings.Contains(text, g.Color) {
			score += s.config.ItemColorScore
		}
		if g.Fit != "" && strings.Contains(text, g.Fit) {
			score += s.config.ItemFitScore
		}
	}
	return score
}
