//go:build wireinject
// +build wireinject

package di

import (
	"AgriIntel/internal/usecase"
	"AgriIntel/pkg/config"
	"AgriIntel/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideClickHouseClient,
		ProvidePriceStore,
		ProvideHistoryCache,
		ProvideModelRegistry,

		// Use cases
		ProvideHistorySource,
		ProvideForecaster,
		ProvideSpoilageEstimator,
		ProvideDecisionEngine,
		ProvideIngestHandler,

		// Transport
		ProvideAgriHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializePriceFeed wires the batch price feed used by cmd/pricefeed.
func InitializePriceFeed(cfg *config.Config) (*usecase.PriceProcessor, func(), error) {
	wire.Build(
		ProvideMetrics,
		ProvideFeedProcessor,
	)
	return nil, nil, nil
}
