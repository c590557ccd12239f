package models

import "strings"

// ExpertRole is the persona a match request is addressed to.
type ExpertRole string

const (
	// RoleStyleAnalyst focuses on how garments are worn (the stylist role).
	RoleStyleAnalyst ExpertRole = "style_analyst"
	// RoleTrendExpert favours recently added records.
	RoleTrendExpert ExpertRole = "trend_expert"
	// RoleColorExpert favours records with several distinct colors.
	RoleColorExpert ExpertRole = "color_expert"
	// RoleFittingCoordinator favours records with several distinct fits.
	RoleFittingCoordinator ExpertRole = "fitting_coordinator"
)

// Roles lists every expert role.
var Roles = []ExpertRole{RoleStyleAnalyst, RoleTrendExpert, RoleColorExpert, RoleFittingCoordinator}

// ParseExpertRole maps a role name or alias to an ExpertRole. Unknown or empty names
// resolve to RoleStyleAnalyst with ok=false.
func ParseExpertRole(s string) (ExpertRole, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch s {
	case "style_analyst", "stylist", "style":
		return RoleStyleAnalyst, true
	case "trend_expert", "trend":
		return RoleTrendExpert, true
	case "color_expert", "colorist", "colour_expert", "color":
		return RoleColorExpert, true
	case "fitting_coordinator", "fit_coordinator", "fitting", "fit":
		return RoleFittingCoordinator, true
	default:
		return RoleStyleAnalyst, false
	}
}

// String returns the role name.
func (r ExpertRole) String() string {
	return string(r)
}

// MatchQuery is one user request. It is never persisted.
type MatchQuery struct {
	Text      string     `json:"text"`
	Role      ExpertRole `json:"expert_role"`
	SessionID string     `json:"session_id,omitempty"`
}
