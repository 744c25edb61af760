package session

// Role names used by the organizational-management service.
const (
	RoleAdmin                    = "admin"
	RoleCommitteeSecretary       = "committee_secretary"
	RoleDeputyCommitteeSecretary = "deputy_committee_secretary"
	RoleBranchSecretary          = "branch_secretary"
	RoleDeputyBranchSecretary    = "deputy_branch_secretary"
	RoleMember                   = "member"
)

// Profile holds the identity fields the client needs for authorization
// decisions, plus a few display fields cached for the UI. Activated is
// tri-state: only an explicit false means the account is deactivated;
// nil means the server never said, and access is allowed.
type Profile struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Card         string   `json:"card,omitempty"`
	Username     string   `json:"username,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	Organization string   `json:"organization,omitempty"`
	Position     string   `json:"league_position,omitempty"`
	Activated    *bool    `json:"activated,omitempty"`
}

// HasRole reports whether the profile carries the named role.
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the profile grants admin pages. The legacy
// service also treats the literal username "admin" as an administrator.
func (p *Profile) IsAdmin() bool {
	if p == nil {
		return false
	}
	return p.HasRole(RoleAdmin) || p.Username == "admin"
}

// Deactivated reports whether the account was explicitly deactivated.
func (p *Profile) Deactivated() bool {
	return p != nil && p.Activated != nil && !*p.Activated
}

// Complete reports whether the fields the UI depends on have been loaded.
// An incomplete profile is usable but should be refreshed in the background.
func (p *Profile) Complete() bool {
	return p != nil && p.Name != "" && p.Organization != ""
}
