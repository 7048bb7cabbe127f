//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sunpark20/lightstock/pkg/config"
	"github.com/sunpark20/lightstock/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideMemoryCache,

		// Upstream and fallbacks
		ProvideFetcher,
		ProvideQuoteProvider,
		ProvideMockSource,

		// Use cases
		ProvideQuoteService,

		// HTTP
		ProvideLimiters,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
