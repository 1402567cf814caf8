package model

import "strings"

// Confidence is a qualitative certainty indicator for an extracted value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the defined confidence levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// CountField pairs an extracted count with its confidence. Confidence is only
// meaningful when Value is present; both are cleared together.
type CountField struct {
	Value      *int       `json:"value"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// Clear drops both the value and its confidence.
func (f *CountField) Clear() {
	f.Value = nil
	f.Confidence = ""
}

// DecisionMaker holds contact details for a practice owner, medical director,
// or manager. Email must be stated verbatim on the site, never guessed.
type DecisionMaker struct {
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Empty reports whether no decision maker fields are set.
func (d DecisionMaker) Empty() bool {
	return d.Name == "" && d.Role == "" && d.Email == "" && d.Phone == ""
}

// Field length limits mirrored in the extraction response schema.
const (
	MaxVetCount             = 50
	MaxSpecialtyServices    = 10
	MaxPersonalizationFacts = 3
	MaxAwards               = 5
	MaxRecentNews           = 3
	MaxCommunityItems       = 3
	MaxPhilosophyLen        = 500
)

// ExtractionRecord is the structured output for one target. Fields not
// explicitly evidenced in the page text are nil/empty; the extraction client
// never backfills by inference. Immutable after creation.
type ExtractionRecord struct {
	VetCount      CountField     `json:"vet_count"`
	DecisionMaker *DecisionMaker `json:"decision_maker,omitempty"`

	Emergency24x7 bool `json:"emergency_24_7"`
	OnlineBooking bool `json:"online_booking"`
	PatientPortal bool `json:"patient_portal"`
	Telemedicine  bool `json:"telemedicine"`

	SpecialtyServices      []string `json:"specialty_services,omitempty"`
	PersonalizationContext []string `json:"personalization_context,omitempty"`
	Awards                 []string `json:"awards,omitempty"`
	RecentNews             []string `json:"recent_news,omitempty"`
	CommunityInvolvement   []string `json:"community_involvement,omitempty"`
	Philosophy             string   `json:"philosophy,omitempty"`
}

// CleanList trims entries, drops empties, and truncates to max items.
func CleanList(items []string, max int) []string {
	var out []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == max {
			break
		}
	}
	return out
}
