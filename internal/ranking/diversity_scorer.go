package ranking

// DiversityScorer gives small bonuses to richly annotated records.
type DiversityScorer struct {
	config *RankingConfig
}

// NewDiversityScorer creates a new DiversityScorer with the given config.
func NewDiversityScorer(config *RankingConfig) *DiversityScorer {
	return &DiversityScorer{config: config}
}

// Name returns the scorer name.
func (s *DiversityScorer) Name() string {
	return ContribDiversity
}

// Score adds tiered bonuses for situation tags, populated slots and styling entries.
func (s *DiversityScorer) Score(ctx *ScoringContext) float64 {
	if ctx.Record == nil {
		return 0
	}
	rec := ctx.Record
	return tier(len(rec.SituationTags), 3, s.config.TagDiversityHigh, 2, s.config.TagDiversityLow) +
		tier(rec.PopulatedSlots(), 4, s.config.SlotDiversityHigh, 3, s.config.SlotDiversityLow) +
		tier(rec.StylingEntries(), 5, s.config.StylingDiversityHigh, 3, s.config.StylingDiversityLow)
}

func tier(n, highAt int, high float64, lowAt int, low float64) float64 {
	switch {
	case n >= highAt:
		return high
	case n >= lowAt:
		return low
	default:
		return 0
	}
}
