//go:build wireinject
// +build wireinject

package di

import (
	"TradeDeck/pkg/config"
	"TradeDeck/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideRedisClient,

		// Repositories
		ProvideCandleStore,
		ProvideBarPublisher,
		ProvideQuoteStore,
		ProvideWatchlistStore,
		ProvideIndicatorStore,

		// Market data services
		ProvideMarketStream,
		ProvideQuoteProvider,
		ProvidePlanGenerator,

		// Use cases
		ProvideBarProcessor,
		ProvideCandleBuilder,
		ProvideQuoteBoard,
		ProvideTickCollector,
		ProvideCandlesSink,
		ProvideCandlesUseCase,
		ProvidePlanService,
		ProvideWatchlistUseCase,
		ProvideIndicatorUseCase,

		// Jobs
		ProvideQueuePublisher,
		ProvideBackfillJob,
		ProvideQueueConsumer,
		ProvideScheduler,

		// HTTP
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
