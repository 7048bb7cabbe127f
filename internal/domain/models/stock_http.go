package models

// Requests for stock HTTP endpoints.

type QuoteRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required,max=20"`
}

type SearchRequest struct {
	Q string `query:"q" json:"q" validate:"required,min=2,max=100"`
}

type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
