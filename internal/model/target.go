package model

import "time"

// Target is one enrichable practice record. Owned by the external store;
// read-only here except through the upsert gateway.
type Target struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	HomepageURL    string     `json:"homepage_url"`
	LastEnrichedAt *time.Time `json:"last_enriched_at,omitempty"`
}
