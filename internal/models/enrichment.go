package models

// EnrichmentStatus is the terminal classification of one enrichment attempt.
type EnrichmentStatus string

const (
	StatusEnriched       EnrichmentStatus = "enriched"
	StatusSkipped        EnrichmentStatus = "skipped"
	StatusNoResults      EnrichmentStatus = "no_results"
	StatusNoImages       EnrichmentStatus = "no_images"
	StatusNoMetadata     EnrichmentStatus = "no_metadata"
	StatusRateLimited    EnrichmentStatus = "rate_limited"
	StatusWCUpdateFailed EnrichmentStatus = "wc_update_failed"
	StatusError          EnrichmentStatus = "error"
	StatusAIError        EnrichmentStatus = "ai_error"
	StatusUpdateError    EnrichmentStatus = "update_error"
	StatusNoAIData       EnrichmentStatus = "no_ai_data"
	StatusNoNewData      EnrichmentStatus = "no_new_data"
)

// EnrichmentResult is one product's outcome within a batch run. Results are
// returned to the caller and never persisted.
type EnrichmentResult struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Status           EnrichmentStatus `json:"status"`
	Reason           string           `json:"reason,omitempty"`
	Error            string           `json:"error,omitempty"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	IngredientsCount int              `json:"ingredientsCount,omitempty"`
	HasInci          bool             `json:"hasInci,omitempty"`
	ImagesFound      int              `json:"imagesFound,omitempty"`
}

// BatchReport is the response of one batch invocation. The caller advances
// its own cursor from NextOffset/HasMore; no state is kept server-side.
type BatchReport struct {
	Success       bool               `json:"success"`
	RunID         string             `json:"run_id,omitempty"`
	Processed     int                `json:"processed"`
	TotalProducts int64              `json:"totalProducts"`
	NextOffset    int                `json:"nextOffset"`
	HasMore       bool               `json:"hasMore"`
	Results       []EnrichmentResult `json:"results"`
}
