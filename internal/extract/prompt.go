package extract

import "fmt"

// Model constants.
const (
	ModelHaiku  = "claude-haiku-4-5-20251001"
	ModelSonnet = "claude-sonnet-4-5-20250929"
)

// maxOutputTokens bounds the response; a full extraction fits well inside it.
const maxOutputTokens = 1024

// estimatedOutputTokens is the expected response size used for cost
// reservations. Typical extractions come in around 300.
const estimatedOutputTokens = 300

// extractionTemperature keeps extraction deterministic.
const extractionTemperature = 0.1

// systemPrompt instructs the model to extract practice data as strict JSON.
const systemPrompt = `You are a data extraction specialist analyzing veterinary practice websites. Extract structured facts about the practice from the provided page text.

Rules:
- Extract ONLY information explicitly stated in the provided text
- NEVER guess, infer, or fabricate values; omit or use null when the text does not state a fact
- Email addresses must appear verbatim in the text; never construct one from a name and domain
- Respond with a single valid JSON object and nothing else

JSON schema:
{
  "vet_count_total": number of veterinarians (DVMs) at the practice, 1-50, or null,
  "vet_count_confidence": "high" (explicit staff list), "medium" (approximate), "low" (indirect), or null,
  "decision_maker": {"name": ..., "role": ..., "email": ..., "phone": ...} for the owner, medical director, or practice manager, or null,
  "emergency_24_7": true if the practice offers 24/7 emergency services,
  "online_booking": true if the practice has online appointment scheduling,
  "patient_portal": true if the practice has an online patient portal,
  "telemedicine_virtual_care": true if the practice offers virtual consultations,
  "specialty_services": up to 10 specialty services (surgery, dentistry, oncology, ...),
  "personalization_context": up to 3 specific facts usable for personalized outreach,
  "awards_accreditations": up to 5 awards or certifications ("AAHA Accredited", ...),
  "recent_news_updates": up to 3 recent practice news items from the last 12 months,
  "community_involvement": up to 3 community events or charitable activities,
  "practice_philosophy": stated mission or philosophy, max 500 characters, or null
}`

// buildUserMessage assembles the per-target message from the practice name
// and its budget-allocated page text.
func buildUserMessage(practiceName, websiteText string) string {
	return fmt.Sprintf("Practice Name: %s\n\nWebsite Content:\n%s", practiceName, websiteText)
}
