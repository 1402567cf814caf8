package extract

import (
	"strings"

	"github.com/sells-group/vet-enrich/internal/model"
)

// sanitize enforces the extraction contract on a parsed record: counts are
// clamped to range, confidence values must be defined, list fields are
// trimmed and truncated, and emails not present verbatim in the source text
// are discarded. The source text is the same content the model saw, so a
// grounded email always survives this check.
func sanitize(rec *model.ExtractionRecord, sourceText string) {
	if rec.VetCount.Value != nil {
		v := *rec.VetCount.Value
		if v < 1 || v > model.MaxVetCount {
			rec.VetCount.Clear()
		}
	}
	if rec.VetCount.Value == nil || !rec.VetCount.Confidence.Valid() {
		rec.VetCount.Clear()
	}

	if rec.DecisionMaker != nil {
		if rec.DecisionMaker.Email != "" && !emailGrounded(rec.DecisionMaker.Email, sourceText) {
			rec.DecisionMaker.Email = ""
		}
		if rec.DecisionMaker.Email != "" && !strings.Contains(rec.DecisionMaker.Email, "@") {
			rec.DecisionMaker.Email = ""
		}
		if rec.DecisionMaker.Empty() {
			rec.DecisionMaker = nil
		}
	}

	rec.SpecialtyServices = model.CleanList(rec.SpecialtyServices, model.MaxSpecialtyServices)
	rec.PersonalizationContext = model.CleanList(rec.PersonalizationContext, model.MaxPersonalizationFacts)
	rec.Awards = model.CleanList(rec.Awards, model.MaxAwards)
	rec.RecentNews = model.CleanList(rec.RecentNews, model.MaxRecentNews)
	rec.CommunityInvolvement = model.CleanList(rec.CommunityInvolvement, model.MaxCommunityItems)

	if len(rec.Philosophy) > model.MaxPhilosophyLen {
		rec.Philosophy = strings.TrimSpace(rec.Philosophy[:model.MaxPhilosophyLen])
	}
}

// emailGrounded reports whether the email appears verbatim in the source
// text. Case folds only; a constructed address never matches.
func emailGrounded(email, sourceText string) bool {
	return strings.Contains(strings.ToLower(sourceText), strings.ToLower(email))
}
