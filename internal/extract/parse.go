package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/vet-enrich/internal/model"
)

// SchemaError reports a response that could not be parsed into the
// extraction schema. Permanent: the target is marked failed and excluded
// from the batch retry pass.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extract: response does not match schema: %s", e.Reason)
}

// wireExtraction mirrors the JSON the model is asked to produce.
type wireExtraction struct {
	VetCountTotal      *int         `json:"vet_count_total"`
	VetCountConfidence *string      `json:"vet_count_confidence"`
	DecisionMaker      *wireContact `json:"decision_maker"`
	Emergency24x7      bool         `json:"emergency_24_7"`
	OnlineBooking      bool         `json:"online_booking"`
	PatientPortal      bool         `json:"patient_portal"`
	Telemedicine       bool         `json:"telemedicine_virtual_care"`
	SpecialtyServices  []string     `json:"specialty_services"`
	Personalization    []string     `json:"personalization_context"`
	Awards             []string     `json:"awards_accreditations"`
	RecentNews         []string     `json:"recent_news_updates"`
	Community          []string     `json:"community_involvement"`
	Philosophy         *string      `json:"practice_philosophy"`
}

type wireContact struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// parseExtraction decodes a model response into an ExtractionRecord.
// Markdown fences and surrounding prose are tolerated; anything that does
// not contain one JSON object is a SchemaError.
func parseExtraction(text string) (*model.ExtractionRecord, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, &SchemaError{Reason: "no JSON object in response"}
	}

	var wire wireExtraction
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, &SchemaError{Reason: err.Error()}
	}

	rec := &model.ExtractionRecord{
		Emergency24x7:          wire.Emergency24x7,
		OnlineBooking:          wire.OnlineBooking,
		PatientPortal:          wire.PatientPortal,
		Telemedicine:           wire.Telemedicine,
		SpecialtyServices:      wire.SpecialtyServices,
		PersonalizationContext: wire.Personalization,
		Awards:                 wire.Awards,
		RecentNews:             wire.RecentNews,
		CommunityInvolvement:   wire.Community,
	}

	rec.VetCount.Value = wire.VetCountTotal
	if wire.VetCountConfidence != nil {
		rec.VetCount.Confidence = model.Confidence(strings.ToLower(*wire.VetCountConfidence))
	}

	if wire.DecisionMaker != nil {
		dm := model.DecisionMaker{
			Name:  deref(wire.DecisionMaker.Name),
			Role:  deref(wire.DecisionMaker.Role),
			Email: deref(wire.DecisionMaker.Email),
			Phone: deref(wire.DecisionMaker.Phone),
		}
		if !dm.Empty() {
			rec.DecisionMaker = &dm
		}
	}

	if wire.Philosophy != nil {
		rec.Philosophy = strings.TrimSpace(*wire.Philosophy)
	}

	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// cleanJSON strips markdown fences and surrounding prose from a response,
// leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}

	return strings.TrimSpace(text[start : end+1])
}
