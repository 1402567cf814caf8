package crawl

import (
	"net/url"
	"strings"

	"github.com/sells-group/vet-enrich/internal/model"
)

// rolePatterns maps URL substrings to page roles, checked in order so the
// most specific role wins (a /team-and-about page is a team page).
var rolePatterns = []struct {
	role     model.PageRole
	keywords []string
}{
	{model.RoleTeam, []string{"team", "staff", "doctor", "veterinarian", "our-vets", "providers"}},
	{model.RoleAbout, []string{"about", "our-story", "who-we-are", "history", "mission"}},
	{model.RoleServices, []string{"service", "specialt", "treatment", "care", "surgery"}},
	{model.RoleContact, []string{"contact", "location", "hours", "directions", "appointment"}},
}

// RoleForURL infers a page's role from its URL. The bare homepage path maps to
// RoleHomepage; unmatched paths map to RoleOther.
func RoleForURL(rawURL string) model.PageRole {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.RoleOther
	}

	path := strings.ToLower(strings.Trim(u.Path, "/"))
	if path == "" || path == "index.html" || path == "index.php" || path == "home" {
		return model.RoleHomepage
	}

	for _, rp := range rolePatterns {
		for _, kw := range rp.keywords {
			if strings.Contains(path, kw) {
				return rp.role
			}
		}
	}
	return model.RoleOther
}

// followable reports whether a discovered link is worth fetching: only pages
// whose role is on the allow-list carry extraction value.
func followable(rawURL string) bool {
	switch RoleForURL(rawURL) {
	case model.RoleAbout, model.RoleTeam, model.RoleServices, model.RoleContact:
		return true
	}
	return false
}
