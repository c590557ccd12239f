package ranking

import "github.com/hyperjump/outfitter/internal/models"

// ColorHarmonyScorer penalizes a top and bottom of the same color. Intentional
// tone-on-tone looks are penalized the same as accidental ones.
type ColorHarmonyScorer struct {
	config *RankingConfig
}

// NewColorHarmonyScorer creates a new ColorHarmonyScorer with the given config.
func NewColorHarmonyScorer(config *RankingConfig) *ColorHarmonyScorer {
	return &ColorHarmonyScorer{config: config}
}

// Name returns the scorer name.
func (s *ColorHarmonyScorer) Name() string {
	return ContribColorHarmony
}

// Score returns MonochromePenalty when both colors are present and equal.
func (s *ColorHarmonyScorer) Score(ctx *ScoringContext) float64 {
	top, _ := ctx.Garment(models.SlotTop)
	bottom, _ := ctx.Garment(models.SlotBottom)
	if top.Color == "" || top.Color != bottom.Color {
		return 0
	}
	return s.config.MonochromePenalty
}
