package repository

import "github.com/sunpark20/lightstock/internal/domain/models"

// MockSource produces canned data when the upstream is unavailable.
type MockSource interface {
	Quote(symbol string) models.Quote
	Search(query string) []models.SearchResult
}

type Metrics interface {
	RecordUpstreamRequest(endpoint, result string)
	RecordCacheLookup(kind string, hit bool)
	RecordFallback(kind, source string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
