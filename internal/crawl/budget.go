package crawl

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/vet-enrich/internal/model"
)

// Per-role character caps. Team pages get the most room because decision
// maker names and vet counts live there.
var roleCharCaps = map[model.PageRole]int{
	model.RoleTeam:     3000,
	model.RoleAbout:    2500,
	model.RoleHomepage: 2000,
	model.RoleServices: 1000,
	model.RoleContact:  500,
	model.RoleOther:    500,
}

// maxTotalChars caps the combined content handed to extraction.
const maxTotalChars = 8000

// AllocateBudget assembles extraction input from fetched pages: highest
// priority roles first, each page truncated to its role's cap, stopping
// once the total cap is reached. Failed and empty pages are skipped.
// Each included page is preceded by a role marker so the model can tell
// sections apart.
func AllocateBudget(pages []model.PageFetchResult) string {
	usable := make([]model.PageFetchResult, 0, len(pages))
	for _, p := range pages {
		if p.Succeeded && strings.TrimSpace(p.Text) != "" {
			usable = append(usable, p)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Role.Priority() < usable[j].Role.Priority()
	})

	var b strings.Builder
	remaining := maxTotalChars
	for _, p := range usable {
		if remaining <= 0 {
			break
		}
		limit := roleCharCaps[p.Role]
		if limit == 0 {
			limit = roleCharCaps[model.RoleOther]
		}
		if limit > remaining {
			limit = remaining
		}

		text := strings.TrimSpace(p.Text)
		if len(text) > limit {
			text = truncateClean(text, limit)
		}
		if text == "" {
			continue
		}

		marker := fmt.Sprintf("=== %s PAGE ===\n", strings.ToUpper(string(p.Role)))
		b.WriteString(marker)
		b.WriteString(text)
		b.WriteString("\n\n")
		remaining -= len(text)
	}

	return strings.TrimSpace(b.String())
}

// truncateClean cuts text at the last word boundary within limit so the
// model never sees a half-word, backing off to a rune boundary first so it
// never sees an invalid byte either.
func truncateClean(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
