// Package ranking scores outfit records against match requests.
//
// A score is the sum of independent contributions (season fitness, color harmony,
// situational relevance, item match, styling relevance, diversity, and the formal
// occasion penalty), capped at MaxScore with no lower bound. Records carrying a
// gender-restricted garment short-circuit to ExclusionScore.
package ranking

import (
	"sort"

	"github.com/hyperjump/outfitter/internal/models"
)

// Contribution names, in evaluation order.
const (
	ContribSeason       = "season"
	ContribColorHarmony = "color_harmony"
	ContribSituation    = "situation"
	ContribItem         = "item"
	ContribStyling      = "styling"
	ContribDiversity    = "diversity"
	ContribOccasion     = "occasion"
)

// Exclusion reasons reported in ScoreBreakdown.
const (
	ExcludedGenderRestricted = "gender_restricted"
	ExcludedFormalMismatch   = "formal_mismatch"
)

// AnalyzedQuery holds the derived form of a match request.
type AnalyzedQuery struct {
	// Original is the request text as given.
	Original string
	// Text is the normalized request text.
	Text string
	// Expanded is the normalized text followed by synonym expansions, separated by " | ".
	Expanded string
	// Situations are the situation categories the request's trigger words imply.
	Situations []string
	// Formal is set when the request implies a formal or date occasion.
	Formal bool
	// Role is the expert role the request is addressed to.
	Role models.ExpertRole
}

// ScoringContext provides all the context needed for scoring a record.
type ScoringContext struct {
	Query  *AnalyzedQuery
	Record *models.OutfitRecord
	// garments holds the record's garments with normalized fields.
	garments map[models.Slot]models.GarmentAttributes
}

// NewScoringContext creates a ScoringContext from a query and record.
func NewScoringContext(query *AnalyzedQuery, rec *models.OutfitRecord) *ScoringContext {
	return &ScoringContext{Query: query, Record: rec, garments: normalizedGarments(rec)}
}

// Garment returns the normalized garment in slot.
func (ctx *ScoringContext) Garment(slot models.Slot) (models.GarmentAttributes, bool) {
	g, ok := ctx.garments[slot]
	return g, ok
}

// Scorer is the interface for all scoring components.
type Scorer interface {
	// Score calculates the contribution for a record given the scoring context.
	Score(ctx *ScoringContext) float64
	// Name returns the name of the scorer for debugging/logging.
	Name() string
}

// Excluder is implemented by scorers whose outcome can remove a record from
// consideration entirely.
type Excluder interface {
	Excludes(ctx *ScoringContext) (bool, string)
}

// ScoreBreakdown provides detailed scoring information for debugging.
type ScoreBreakdown struct {
	// FinalScore is the computed final score.
	FinalScore float64 `json:"final_score"`
	// RawScore is the sum of contributions before capping.
	RawScore float64 `json:"raw_score"`
	// Contributions holds each scorer's contribution by name.
	Contributions map[string]float64 `json:"contributions"`
	// Excluded is set when the record must never be offered.
	Excluded bool `json:"excluded"`
	// ExclusionReason names the rule that excluded the record.
	ExclusionReason string `json:"exclusion_reason,omitempty"`
}

// NewScoreBreakdown creates a new ScoreBreakdown instance.
func NewScoreBreakdown() *ScoreBreakdown {
	return &ScoreBreakdown{Contributions: make(map[string]float64)}
}

// ScoredRecord pairs a record with its score.
type ScoredRecord struct {
	Record    *models.OutfitRecord
	Score     float64
	Breakdown *ScoreBreakdown
}

// Excluded reports whether the record is excluded from selection.
func (s ScoredRecord) Excluded() bool {
	return s.Breakdown != nil && s.Breakdown.Excluded
}

// SortScored orders records by descending score, breaking ties by id.
func SortScored(s []ScoredRecord) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Record.ID < s[j].Record.ID
	})
}
