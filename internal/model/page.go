package model

import "time"

// PageRole represents the inferred category of a fetched page.
type PageRole string

const (
	RoleHomepage PageRole = "homepage"
	RoleAbout    PageRole = "about"
	RoleTeam     PageRole = "team"
	RoleServices PageRole = "services"
	RoleContact  PageRole = "contact"
	RoleOther    PageRole = "other"
)

// AllPageRoles returns all defined page roles.
func AllPageRoles() []PageRole {
	return []PageRole{
		RoleHomepage,
		RoleAbout,
		RoleTeam,
		RoleServices,
		RoleContact,
		RoleOther,
	}
}

// rolePriority orders roles by extraction value. Team pages carry vet names
// and decision makers, so they win the content budget over a verbose homepage.
var rolePriority = map[PageRole]int{
	RoleTeam:     1,
	RoleAbout:    2,
	RoleHomepage: 3,
	RoleServices: 4,
	RoleContact:  5,
	RoleOther:    6,
}

// Priority returns the budget allocation rank for a role (lower = first).
func (r PageRole) Priority() int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return 99
}

// PageFetchResult represents one page fetched during a target crawl. Held only
// for the duration of one target's processing.
type PageFetchResult struct {
	URL        string   `json:"url"`
	Role       PageRole `json:"role"`
	Title      string   `json:"title,omitempty"`
	Text       string   `json:"text"`
	StatusCode int      `json:"status_code"`
	Succeeded  bool     `json:"succeeded"`
	Error      string   `json:"error,omitempty"`
}

// CrawlCache stores a cached crawl result keyed by homepage URL.
type CrawlCache struct {
	ID        string            `json:"id"`
	TargetURL string            `json:"target_url"`
	Pages     []PageFetchResult `json:"pages"`
	CrawledAt time.Time         `json:"crawled_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}
