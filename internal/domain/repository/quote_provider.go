package repository

import (
	"context"

	"github.com/sunpark20/lightstock/internal/domain/models"
)

//go:generate mockgen -source=quote_provider.go -destination=../../usecase/mock_quote_provider_test.go -package=usecase_test

// QuoteProvider fetches live data from the upstream finance API.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	// LastClose builds a quote from the most recent daily bar.
	LastClose(ctx context.Context, symbol string) (models.Quote, error)
}
