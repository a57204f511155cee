//go:build wireinject
// +build wireinject

package di

import (
	"ClmmLens/internal/domain/repository"
	"ClmmLens/internal/domain/service"
	"ClmmLens/internal/service/coingecko"
	"ClmmLens/internal/usecase"
	"ClmmLens/pkg/config"
	"ClmmLens/pkg/metrics"
	"ClmmLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
		ProvideCache,
		ProvideClickHouseClient,

		// Repositories
		ProvideAssetRegistry,
		ProvideMarketData,
		wire.Bind(new(repository.MarketData), new(*coingecko.Client)),
		ProvideHistoryStore,
		ProvideReportPublisher,
		ProvideSpotTracker,

		// Use cases
		ProvidePriceOracle,
		wire.Bind(new(service.PriceOracle), new(*usecase.PriceOracle)),
		ProvideCalculator,
		usecase.NewRangePlanner,
		usecase.NewPositionAnalyzer,

		// Transport
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
