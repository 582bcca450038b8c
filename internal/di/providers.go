package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeDeck/internal/domain/repository"
	"TradeDeck/internal/handler/api"
	"TradeDeck/internal/jobs"
	mid "TradeDeck/internal/middleware"
	internalrepo "TradeDeck/internal/repository"
	"TradeDeck/internal/service/llm"
	"TradeDeck/internal/service/marketdata"
	"TradeDeck/internal/service/polygon"
	"TradeDeck/internal/usecase"
	"TradeDeck/pkg/cache"
	pkgch "TradeDeck/pkg/clickhouse"
	"TradeDeck/pkg/config"
	pkgkafka "TradeDeck/pkg/kafka"
	applogger "TradeDeck/pkg/logger"
	"TradeDeck/pkg/metrics"
	"TradeDeck/pkg/queue"
	"TradeDeck/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates the ClickHouse candle store and ensures its
// schema exists.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) (repository.CandleStore, error) {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("candle store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. Only dialed when the
// backend routes bars through Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBarPublisher creates the Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.BarPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.CandlesTopic)
}

// ProvideKafkaConsumer creates the consumer that drains the candles topic
// back into ClickHouse. Nil unless the backend is Kafka.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideCandlesSink registers the handler that persists consumed bars.
func ProvideCandlesSink(cfg *config.Config, store repository.CandleStore, m repository.Metrics, l *applogger.Logger) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.CandlesTopic, store, m, l)
}

// ProvideRedisCache creates the Redis cache backend.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	return cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
}

// ProvideCacheService layers a small in-process cache over Redis.
func ProvideCacheService(rc *cache.RedisCache) cache.Service {
	return cache.NewLayeredCache(rc)
}

// ProvideRedisClient exposes the raw client for the job queue.
func ProvideRedisClient(rc *cache.RedisCache) *redis.Client {
	return rc.Client()
}

// ProvideMarketStream creates the Polygon WebSocket stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return polygon.New(
		cfg.Polygon.APIKey,
		cfg.Polygon.WebSocketURL,
		cfg.Polygon.ReconnectDelay,
		cfg.Polygon.MaxBackoff,
		cfg.Polygon.PingInterval,
	)
}

// ProvideQuoteProvider chains the Polygon REST API with the configured
// fallback vendor.
func ProvideQuoteProvider(cfg *config.Config, m repository.Metrics) repository.QuoteProvider {
	primary := marketdata.NewPolygonREST(cfg.Polygon.RESTURL, cfg.Polygon.APIKey, cfg.Providers.RequestTimeout)
	secondary := marketdata.NewFinnhubREST(cfg.Fallback.RESTURL, cfg.Fallback.APIKey, cfg.Providers.RequestTimeout)
	return marketdata.NewFallbackFetcher(primary, secondary, m,
		marketdata.WithMaxRetries(cfg.Providers.MaxRetries),
		marketdata.WithLocalRate(cfg.Providers.RatePerSec, cfg.Providers.Burst),
	)
}

// ProvideQuoteStore creates the cache-backed quote store.
func ProvideQuoteStore(c cache.Service) repository.QuoteStore {
	return internalrepo.NewCacheQuoteStore(c)
}

// ProvideQuoteBoard creates the in-memory quote board.
func ProvideQuoteBoard(store repository.QuoteStore, provider repository.QuoteProvider, m repository.Metrics) *usecase.QuoteBoard {
	return usecase.NewQuoteBoard(store, provider, m)
}

// ProvideBarProcessor routes closed bars to the configured backend.
func ProvideBarProcessor(pub repository.BarPublisher, store repository.CandleStore, m repository.Metrics, cfg *config.Config) *usecase.BarProcessor {
	return usecase.NewBarProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideCandleBuilder buckets ticks into bars for all timeframes.
func ProvideCandleBuilder(proc *usecase.BarProcessor, m repository.Metrics) *usecase.CandleBuilder {
	return usecase.NewCandleBuilder(nil, proc, m)
}

// ProvideTickCollector assembles the realtime ingest path with the
// validation/throttle/buffer pipeline in the middle.
func ProvideTickCollector(
	stream repository.MarketStream,
	builder *usecase.CandleBuilder,
	board *usecase.QuoteBoard,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickCollector {
	ingest := usecase.NewTickIngest(builder, board, m)
	pipe := mid.NewStreamPipeline(ingest, m,
		mid.WithMaxRPS(cfg.Stream.MaxRPS),
		mid.WithBufferSize(cfg.Stream.BufferSize),
	)
	return usecase.NewTickCollector(stream, ingest, m, pipe, cfg.Polygon.Symbols)
}

// ProvidePlanGenerator creates the LLM strategy client.
func ProvidePlanGenerator(cfg *config.Config) repository.PlanGenerator {
	return llm.New(cfg.Plans.StrategyURL, cfg.Plans.Timeout)
}

// ProvidePlanService creates the TTL-cached plan service.
func ProvidePlanService(
	gen repository.PlanGenerator,
	store repository.CandleStore,
	board *usecase.QuoteBoard,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PlanService {
	return usecase.NewPlanService(gen, store, board, c, m, l, cfg.Plans.CacheTTL, cfg.Plans.ContextBars)
}

// ProvideCandlesUseCase creates the candles query usecase.
func ProvideCandlesUseCase(store repository.CandleStore, builder *usecase.CandleBuilder) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store, builder)
}

// ProvideWatchlistStore creates the cache-backed watchlist store.
func ProvideWatchlistStore(c cache.Service) repository.WatchlistStore {
	return internalrepo.NewCacheWatchlistStore(c)
}

// ProvideIndicatorStore creates the cache-backed indicator store.
func ProvideIndicatorStore(c cache.Service) repository.IndicatorStore {
	return internalrepo.NewCacheIndicatorStore(c)
}

// ProvideWatchlistUseCase creates the watchlist usecase.
func ProvideWatchlistUseCase(store repository.WatchlistStore, collector *usecase.TickCollector, board *usecase.QuoteBoard) *usecase.WatchlistUseCase {
	return usecase.NewWatchlistUseCase(store, collector, board)
}

// ProvideIndicatorUseCase creates the indicator usecase.
func ProvideIndicatorUseCase(store repository.IndicatorStore, candles repository.CandleStore) *usecase.IndicatorUseCase {
	return usecase.NewIndicatorUseCase(store, candles)
}

// ProvideRouter assembles all HTTP handlers.
func ProvideRouter(
	l *applogger.Logger,
	board *usecase.QuoteBoard,
	candles *usecase.CandlesUseCase,
	lists *usecase.WatchlistUseCase,
	plans *usecase.PlanService,
	indicators *usecase.IndicatorUseCase,
	store repository.CandleStore,
	stream repository.MarketStream,
) *api.Router {
	return api.NewRouter(
		api.NewMarketHandler(l, board, candles, lists),
		api.NewPlansHandler(l, plans),
		api.NewWatchlistsHandler(l, lists),
		api.NewIndicatorsHandler(l, indicators),
		store,
		stream,
	)
}

// ProvideQueuePublisher creates the producer side of the Redis job queue.
func ProvideQueuePublisher(l *applogger.Logger, client *redis.Client) queue.QueueService {
	return queue.NewRedisPublisher(l, client)
}

// ProvideBackfillJob creates the daily-candle backfill job.
func ProvideBackfillJob(provider repository.QuoteProvider, store repository.CandleStore, m repository.Metrics, l *applogger.Logger) *jobs.BackfillJob {
	return jobs.NewBackfillJob(provider, store, m, l)
}

// ProvideQueueConsumer creates the consumer side of the Redis job queue.
func ProvideQueueConsumer(l *applogger.Logger, cfg *config.Config, client *redis.Client, backfill *jobs.BackfillJob) *queue.RedisQueue {
	workers := cfg.Jobs.Workers
	if workers <= 0 {
		workers = 2
	}
	return queue.NewRedisConsumer(l, &queue.QueueConfig{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, []queue.Job{backfill})
}

// ProvideScheduler creates the cron scheduler for backfill and sweeps.
func ProvideScheduler(
	publisher queue.QueueService,
	lists *usecase.WatchlistUseCase,
	plans *usecase.PlanService,
	l *applogger.Logger,
	cfg *config.Config,
) *jobs.Scheduler {
	opts := []jobs.SchedulerOption{
		jobs.WithSeedSymbols(cfg.Polygon.Symbols),
	}
	if cfg.Jobs.BackfillCron != "" {
		opts = append(opts, jobs.WithBackfill(cfg.Jobs.BackfillCron, cfg.Jobs.BackfillDays))
	}
	if cfg.Jobs.SweepCron != "" {
		opts = append(opts, jobs.WithSweep(cfg.Jobs.SweepCron))
	}
	return jobs.NewScheduler(publisher, lists, plans, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	board *usecase.QuoteBoard,
	proc *usecase.BarProcessor,
	consumer *pkgkafka.Consumer,
	sink *usecase.KafkaCandlesHandler,
	queueConsumer *queue.RedisQueue,
	scheduler *jobs.Scheduler,
	chClient *pkgch.Client,
	router *api.Router,
) *server.App {
	return server.New(cfg, l, collector, board, proc, consumer, sink, queueConsumer, scheduler, chClient, router)
}
