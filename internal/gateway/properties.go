package gateway

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/sells-group/vet-enrich/internal/model"
)

// Enrichment-owned property names.
const (
	propPracticeName  = "Practice Name"
	propWebsite       = "Website"
	propEnrichStatus  = "Enrichment Status"
	propEnrichError   = "Enrichment Error"
	propLastEnriched  = "Last Enrichment Date"
	propVetCount      = "Confirmed Vet Count (Total)"
	propVetConfidence = "Vet Count Confidence"
	propDMName        = "Decision Maker Name"
	propDMRole        = "Decision Maker Role"
	propDMEmail       = "Decision Maker Email"
	propDMPhone       = "Decision Maker Phone"
	propEmergency     = "24/7 Emergency Services"
	propOnlineBooking = "Online Booking"
	propPatientPortal = "Patient Portal"
	propTelemedicine  = "Telemedicine"
	propSpecialties   = "Specialty Services"
	propPersonal      = "Personalization Context"
	propAwards        = "Awards/Accreditations"
	propRecentNews    = "Recent News/Updates"
	propCommunity     = "Community Involvement"
	propPhilosophy    = "Practice Philosophy/Mission"
)

// Enrichment status values.
const (
	statusCompleted = "Completed"
	statusFailed    = "Failed"
)

// maxErrorLen bounds the stored failure message.
const maxErrorLen = 2000

// buildMergeProperties assembles the partial update payload for a completed
// enrichment. Only fields with extracted data are included, plus the status
// and timestamp; absent fields keep whatever value the record already holds.
func buildMergeProperties(rec *model.ExtractionRecord, now time.Time) notionapi.Properties {
	props := make(notionapi.Properties)

	if rec.VetCount.Value != nil {
		props[propVetCount] = notionapi.NumberProperty{
			Number: float64(*rec.VetCount.Value),
		}
		props[propVetConfidence] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.VetCount.Confidence)},
		}
	}

	if dm := rec.DecisionMaker; dm != nil {
		if dm.Name != "" {
			props[propDMName] = richText(dm.Name)
		}
		if dm.Role != "" {
			props[propDMRole] = notionapi.SelectProperty{
				Select: notionapi.Option{Name: dm.Role},
			}
		}
		if dm.Email != "" {
			props[propDMEmail] = notionapi.EmailProperty{Email: dm.Email}
		}
		if dm.Phone != "" {
			props[propDMPhone] = notionapi.PhoneNumberProperty{PhoneNumber: dm.Phone}
		}
	}

	props[propEmergency] = notionapi.CheckboxProperty{Checkbox: rec.Emergency24x7}
	props[propOnlineBooking] = notionapi.CheckboxProperty{Checkbox: rec.OnlineBooking}
	props[propPatientPortal] = notionapi.CheckboxProperty{Checkbox: rec.PatientPortal}
	props[propTelemedicine] = notionapi.CheckboxProperty{Checkbox: rec.Telemedicine}

	if len(rec.SpecialtyServices) > 0 {
		props[propSpecialties] = multiSelect(rec.SpecialtyServices)
	}
	if len(rec.PersonalizationContext) > 0 {
		props[propPersonal] = richText(strings.Join(rec.PersonalizationContext, "\n"))
	}
	if len(rec.Awards) > 0 {
		props[propAwards] = multiSelect(rec.Awards)
	}
	if len(rec.RecentNews) > 0 {
		props[propRecentNews] = richText(strings.Join(rec.RecentNews, "\n"))
	}
	if len(rec.CommunityInvolvement) > 0 {
		props[propCommunity] = richText(strings.Join(rec.CommunityInvolvement, "\n"))
	}
	if rec.Philosophy != "" {
		props[propPhilosophy] = richText(rec.Philosophy)
	}

	props[propEnrichStatus] = notionapi.SelectProperty{
		Select: notionapi.Option{Name: statusCompleted},
	}
	props[propLastEnriched] = dateProperty(now)

	return props
}

// buildFailureProperties assembles the payload for a failed enrichment.
func buildFailureProperties(errMsg string, now time.Time) notionapi.Properties {
	if len(errMsg) > maxErrorLen {
		cut := maxErrorLen
		for cut > 0 && !utf8.RuneStart(errMsg[cut]) {
			cut--
		}
		errMsg = errMsg[:cut]
	}
	return notionapi.Properties{
		propEnrichStatus: notionapi.SelectProperty{
			Select: notionapi.Option{Name: statusFailed},
		},
		propEnrichError:  richText(errMsg),
		propLastEnriched: dateProperty(now),
	}
}

// stripProtected removes any human-owned property from a payload. Payload
// builders never add them; this is the enforced boundary in case a future
// field name collides.
func stripProtected(props notionapi.Properties) notionapi.Properties {
	for name := range props {
		if IsProtected(name) {
			delete(props, name)
		}
	}
	return props
}

func richText(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{Text: &notionapi.Text{Content: content}},
		},
	}
}

func multiSelect(values []string) notionapi.MultiSelectProperty {
	opts := make([]notionapi.Option, len(values))
	for i, v := range values {
		opts[i] = notionapi.Option{Name: v}
	}
	return notionapi.MultiSelectProperty{MultiSelect: opts}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &d},
	}
}
