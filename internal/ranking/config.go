package ranking

import "time"

// Seasons understood by the season scorer.
const (
	SeasonWarm = "warm"
	SeasonCold = "cold"
	// SeasonAuto picks warm or cold from the month when the calculator is built.
	SeasonAuto = "auto"
)

// SeasonProfile lists garment terms that suit or do not suit a season.
type SeasonProfile struct {
	Inappropriate []string `yaml:"inappropriate"`
	Appropriate   []string `yaml:"appropriate"`
}

// RankingConfig holds all configuration for outfit scoring.
type RankingConfig struct {
	// Hard exclusion
	ExclusionScore float64 `yaml:"exclusion_score"` // default: -1.0

	// Season fitness
	Season         string                   `yaml:"season"`         // default: warm
	SeasonPenalty  float64                  `yaml:"season_penalty"` // default: -0.6
	SeasonBonus    float64                  `yaml:"season_bonus"`   // default: 0.2
	SeasonProfiles map[string]SeasonProfile `yaml:"season_profiles"`
	WarmMonths     []time.Month             `yaml:"warm_months"` // default: April to September

	// Color harmony
	MonochromePenalty float64 `yaml:"monochrome_penalty"` // default: -0.8

	// Situational relevance
	SituationTagScore     float64 `yaml:"situation_tag_score"`     // default: 0.4
	SituationTriggerScore float64 `yaml:"situation_trigger_score"` // default: 0.6
	SituationTaggedBonus  float64 `yaml:"situation_tagged_bonus"`  // default: 0.1

	// Keyword/item match
	CompoundItemScore float64 `yaml:"compound_item_score"` // default: 0.8
	ItemNameScore     float64 `yaml:"item_name_score"`     // default: 0.3
	ItemColorScore    float64 `yaml:"item_color_score"`    // default: 0.2
	ItemFitScore      float64 `yaml:"item_fit_score"`      // default: 0.2

	// Styling relevance
	MajorStylingScore  float64  `yaml:"major_styling_score"`  // default: 0.3
	MinorStylingScore  float64  `yaml:"minor_styling_score"`  // default: 0.2
	StylistBonus       float64  `yaml:"stylist_bonus"`        // default: 0.1
	MajorStylingFields []string `yaml:"major_styling_fields"` // default: wearing_method, tuck_degree, fit_details, silhouette_balance

	// Diversity bonus
	TagDiversityHigh     float64 `yaml:"tag_diversity_high"`     // default: 0.05 (>= 3 tags)
	TagDiversityLow      float64 `yaml:"tag_diversity_low"`      // default: 0.03 (>= 2 tags)
	SlotDiversityHigh    float64 `yaml:"slot_diversity_high"`    // default: 0.05 (4 slots)
	SlotDiversityLow     float64 `yaml:"slot_diversity_low"`     // default: 0.03 (>= 3 slots)
	StylingDiversityHigh float64 `yaml:"styling_diversity_high"` // default: 0.03 (>= 5 entries)
	StylingDiversityLow  float64 `yaml:"styling_diversity_low"`  // default: 0.02 (>= 3 entries)

	// Formal occasion
	FormalMismatchPenalty float64  `yaml:"formal_mismatch_penalty"` // default: -10.0
	InformalTopPenalty    float64  `yaml:"informal_top_penalty"`    // default: -0.8
	InformalBottomPenalty float64  `yaml:"informal_bottom_penalty"` // default: -0.6
	FormalKeywords        []string `yaml:"formal_keywords"`

	// Lexicons
	GenderRestrictedTerms []string `yaml:"gender_restricted_terms"`
	JacketTerms           []string `yaml:"jacket_terms"`
	ShortsTerms           []string `yaml:"shorts_terms"`
	InformalTopTerms      []string `yaml:"informal_top_terms"`
	InformalBottomTerms   []string `yaml:"informal_bottom_terms"`

	// MaxScore caps the final score. There is no lower bound.
	MaxScore float64 `yaml:"max_score"` // default: 1.0
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		ExclusionScore: -1.0,

		Season:        SeasonWarm,
		SeasonPenalty: -0.6,
		SeasonBonus:   0.2,
		SeasonProfiles: map[string]SeasonProfile{
			SeasonWarm: {
				Inappropriate: []string{"padding", "puffer", "parka", "down jacket", "coat", "wool", "fleece", "turtleneck", "sweater", "thermal", "knit"},
				Appropriate:   []string{"linen", "short sleeve", "sleeveless", "t-shirt", "tee", "shorts", "seersucker", "sandals"},
			},
			SeasonCold: {
				Inappropriate: []string{"shorts", "sleeveless", "linen", "sandals", "tank top", "short sleeve"},
				Appropriate:   []string{"coat", "padding", "puffer", "wool", "knit", "sweater", "turtleneck", "fleece", "cardigan"},
			},
		},
		WarmMonths: []time.Month{time.April, time.May, time.June, time.July, time.August, time.September},

		MonochromePenalty: -0.8,

		SituationTagScore:     0.4,
		SituationTriggerScore: 0.6,
		SituationTaggedBonus:  0.1,

		CompoundItemScore: 0.8,
		ItemNameScore:     0.3,
		ItemColorScore:    0.2,
		ItemFitScore:      0.2,

		MajorStylingScore:  0.3,
		MinorStylingScore:  0.2,
		StylistBonus:       0.1,
		MajorStylingFields: []string{"wearing_method", "tuck_degree", "fit_details", "silhouette_balance"},

		TagDiversityHigh:     0.05,
		TagDiversityLow:      0.03,
		SlotDiversityHigh:    0.05,
		SlotDiversityLow:     0.03,
		StylingDiversityHigh: 0.03,
		StylingDiversityLow:  0.02,

		FormalMismatchPenalty: -10.0,
		InformalTopPenalty:    -0.8,
		InformalBottomPenalty: -0.6,
		FormalKeywords:        []string{"introduction meeting", "date", "interview", "work", "business", "company", "meeting", "office"},

		GenderRestrictedTerms: []string{"skirt", "one-piece", "blouse", "high heels", "pumps", "camisole", "bralette", "sundress", "mini dress", "maxi dress", "slip dress"},
		JacketTerms:           []string{"jacket", "blazer", "coat", "suit"},
		ShortsTerms:           []string{"shorts", "short pants", "bermuda", "hot pants"},
		InformalTopTerms:      []string{"graphic", "oversized", "hoodie", "crop", "t-shirt", "tee", "athletic", "jersey"},
		InformalBottomTerms:   []string{"shorts", "short pants", "bermuda", "hot pants"},

		MaxScore: 1.0,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	d := DefaultRankingConfig()

	floats := []struct {
		v   *float64
		def float64
	}{
		{&c.ExclusionScore, d.ExclusionScore},
		{&c.SeasonPenalty, d.SeasonPenalty},
		{&c.SeasonBonus, d.SeasonBonus},
		{&c.MonochromePenalty, d.MonochromePenalty},
		{&c.SituationTagScore, d.SituationTagScore},
		{&c.SituationTriggerScore, d.SituationTriggerScore},
		{&c.SituationTaggedBonus, d.SituationTaggedBonus},
		{&c.CompoundItemScore, d.CompoundItemScore},
		{&c.ItemNameScore, d.ItemNameScore},
		{&c.ItemColorScore, d.ItemColorScore},
		{&c.ItemFitScore, d.ItemFitScore},
		{&c.MajorStylingScore, d.MajorStylingScore},
		{&c.MinorStylingScore, d.MinorStylingScore},
		{&c.StylistBonus, d.StylistBonus},
		{&c.TagDiversityHigh, d.TagDiversityHigh},
		{&c.TagDiversityLow, d.TagDiversityLow},
		{&c.SlotDiversityHigh, d.SlotDiversityHigh},
		{&c.SlotDiversityLow, d.SlotDiversityLow},
		{&c.StylingDiversityHigh, d.StylingDiversityHigh},
		{&c.StylingDiversityLow, d.StylingDiversityLow},
		{&c.FormalMismatchPenalty, d.FormalMismatchPenalty},
		{&c.InformalTopPenalty, d.InformalTopPenalty},
		{&c.InformalBottomPenalty, d.InformalBottomPenalty},
		{&c.MaxScore, d.MaxScore},
	}
	for _, f := range floats {
		if *f.v == 0 {
			*f.v = f.def
		}
	}

	if c.Season == "" {
		c.Season = d.Season
	}
	if len(c.SeasonProfiles) == 0 {
		c.SeasonProfiles = d.SeasonProfiles
	}
	if len(c.WarmMonths) == 0 {
		c.WarmMonths = d.WarmMonths
	}

	lists := []struct {
		v   *[]string
		def []string
	}{
		{&c.MajorStylingFields, d.MajorStylingFields},
		{&c.FormalKeywords, d.FormalKeywords},
		{&c.GenderRestrictedTerms, d.GenderRestrictedTerms},
		{&c.JacketTerms, d.JacketTerms},
		{&c.ShortsTerms, d.ShortsTerms},
		{&c.InformalTopTerms, d.InformalTopTerms},
		{&c.InformalBottomTerms, d.InformalBottomTerms},
	}
	for _, l := range lists {
		if len(*l.v) == 0 {
			*l.v = l.def
		}
	}
}

// ResolveSeason returns the configured season, resolving SeasonAuto against now.
func (c *RankingConfig) ResolveSeason(now time.Time) string {
	if c.Season != SeasonAuto {
		return c.Season
	}
	for _, m := range c.WarmMonths {
		if now.Month() == m {
			return SeasonWarm
		}
	}
	return SeasonCold
}
