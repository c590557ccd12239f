package models

// Reasons reported when a match finds nothing.
const (
	ReasonEmptyCatalog = "empty_catalog"
	ReasonNoCandidates = "no_candidates"
)

// Candidate paths, recorded for observability.
const (
	PathIndex    = "index"
	PathFullScan = "full_scan"
)

// MatchResult is the outcome of a match request. Found=false is a normal
// "nothing found" outcome, not an error.
type MatchResult struct {
	Found          bool               `json:"found"`
	Reason         string             `json:"reason,omitempty"`
	Record         *OutfitRecord      `json:"record,omitempty"`
	Score          float64            `json:"score"`
	Contributions  map[string]float64 `json:"contributions,omitempty"`
	Path           string             `json:"path,omitempty"`
	CandidateCount int                `json:"candidate_count"`
	SessionID      string             `json:"session_id,omitempty"`
	Role           ExpertRole         `json:"expert_role,omitempty"`
	Response       string             `json:"response,omitempty"`
}
