package di

import (
	"context"
	"fmt"
	"time"

	"ClmmLens/internal/domain/models"
	"ClmmLens/internal/domain/repository"
	"ClmmLens/internal/domain/service"
	"ClmmLens/internal/handler/api"
	internalrepo "ClmmLens/internal/repository"
	"ClmmLens/internal/service/coingecko"
	"ClmmLens/internal/service/finnhub"
	"ClmmLens/internal/service/ratelimit"
	"ClmmLens/internal/services/simulation"
	"ClmmLens/internal/usecase"
	"ClmmLens/pkg/cache"
	pkgch "ClmmLens/pkg/clickhouse"
	"ClmmLens/pkg/config"
	xhttp "ClmmLens/pkg/http"
	pkgkafka "ClmmLens/pkg/kafka"
	applogger "ClmmLens/pkg/logger"
	"ClmmLens/pkg/metrics"
	"ClmmLens/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Compression:  cfg.Kafka.Compression,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		Linger:       cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		Async:        cfg.Kafka.Producer.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger creates the application logger. Repeated errors are
// aggregated to kafka.log_topic when the collector and kafka are enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideCache creates the oracle cache for the configured backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	c := cfg.Cache
	if c.Backend == "memory" {
		return cache.NewMemoryCache(cache.MemoryConfig{
			MaxEntries: c.Memory.MaxSize,
			Sweep:      c.Memory.CleanupInterval,
		}), nil
	}

	rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{
		Host:     c.Redis.Host,
		Port:     c.Redis.Port,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
		Timeout:  c.Redis.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if c.Backend == "layered" {
		return cache.NewLayeredCache(rc, c.Memory.MaxSize, c.Memory.L1TTL), nil
	}
	return rc, nil
}

// ProvideAssetRegistry builds the registry from market.assets.
func ProvideAssetRegistry(cfg *config.Config) models.AssetRegistry {
	assets := make(map[string]models.Asset, len(cfg.Market.Assets))
	for sym, a := range cfg.Market.Assets {
		assets[sym] = models.Asset{ProviderID: a.ID, StreamSymbol: a.StreamSymbol}
	}
	return models.NewAssetRegistry(assets)
}

// ProvideMarketData creates the CoinGecko client with its outbound limiter.
func ProvideMarketData(cfg *config.Config, log *applogger.Logger) *coingecko.Client {
	var limiter *ratelimit.Limiter
	if cfg.Market.RateLimit.Enabled() {
		limiter = ratelimit.New(cfg.Market.RateLimit.Capacity, cfg.Market.RateLimit.RefillPerSec)
	}
	return coingecko.New(coingecko.Config{
		BaseURL:    cfg.Market.BaseURL,
		APIKey:     cfg.Market.APIKey,
		Timeout:    cfg.Market.Timeout,
		MaxRetries: cfg.Market.MaxRetries,
		RetryDelay: cfg.Market.RetryDelay,
	}, limiter, log.With(applogger.String("component", "coingecko")))
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClickHouse.DialTimeout+5*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx, pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		HTTP:         cfg.ClickHouse.UseHTTP,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		MaxExecution: cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore creates the warehouse store and its schema. It returns
// nil when ClickHouse is disabled.
func ProvideHistoryStore(client *pkgch.Client, cfg *config.Config, log *applogger.Logger) (repository.HistoryStore, error) {
	if client == nil {
		return nil, nil
	}
	store, err := internalrepo.NewCHPriceStore(client.DB(), cfg.ClickHouse.Database, cfg.ClickHouse.Table, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Exec(ctx, store.Schema()...); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideReportPublisher publishes reports to kafka.topic, or drops them when
// kafka is disabled.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReportPublisher {
	if producer == nil {
		return internalrepo.NopReportPublisher{}
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSpotTracker creates the live price tracker, or nil when the stream
// is disabled or no asset has a stream symbol.
func ProvideSpotTracker(cfg *config.Config, registry models.AssetRegistry, m repository.Metrics, log *applogger.Logger) *usecase.SpotTracker {
	symbols := registry.ByStreamSymbol()
	if !cfg.Stream.Enabled || len(symbols) == 0 {
		return nil
	}
	l := log.With(applogger.String("component", "finnhub"))
	stream := finnhub.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
	return usecase.NewSpotTracker(stream, m, cfg.Stream.StaleAfter, cfg.Stream.MinInterval, l)
}

// ProvidePriceOracle creates the oracle over cache, live stream, provider and
// warehouse.
func ProvidePriceOracle(
	cfg *config.Config,
	registry models.AssetRegistry,
	market repository.MarketData,
	store repository.HistoryStore,
	tracker *usecase.SpotTracker,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.PriceOracle {
	var live usecase.LiveSpot
	if tracker != nil {
		live = tracker
	}
	return usecase.NewPriceOracle(registry, market, store, live, c, m, usecase.OracleConfig{
		ReferenceAsset:  cfg.Market.ReferenceAsset,
		HistoryTTL:      cfg.Cache.HistoryTTL,
		SpotTTL:         cfg.Cache.SpotTTL,
		DefaultDays:     cfg.Market.HistoryDays,
		DefaultInterval: models.NormalizeInterval(cfg.Market.Interval),
		FallbackLength:  cfg.Market.FallbackLength,
		MinPoints:       cfg.Market.MinPoints,
		FetchTimeout:    fetchBudget(cfg),
	}, log.With(applogger.String("component", "oracle")))
}

// fetchBudget covers every provider attempt plus the waits between them.
func fetchBudget(cfg *config.Config) time.Duration {
	n := time.Duration(cfg.Market.MaxRetries + 1)
	return n*cfg.Market.Timeout + (n-1)*cfg.Market.RetryDelay*2
}

// ProvideCalculator creates the calculator with the configured simulation caps.
func ProvideCalculator(cfg *config.Config) *usecase.Calculator {
	return usecase.NewCalculator(simulation.New(),
		usecase.WithLimits(cfg.Simulation.MaxPaths, cfg.Simulation.MaxHorizon),
	)
}

// ProvideHTTPHandler creates the API handler with its per-client limiter.
func ProvideHTTPHandler(
	cfg *config.Config,
	log *applogger.Logger,
	oracle service.PriceOracle,
	calc *usecase.Calculator,
	planner *usecase.RangePlanner,
	analyzer *usecase.PositionAnalyzer,
) xhttp.Handler {
	var limiter *ratelimit.Limiter
	if cfg.API.RateLimit.Enabled() {
		limiter = ratelimit.New(cfg.API.RateLimit.Capacity, cfg.API.RateLimit.RefillPerSec)
	}
	return api.NewClmmEchoHandler(log, oracle, calc, planner, analyzer, limiter)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	handler xhttp.Handler,
	log *applogger.Logger,
	tracker *usecase.SpotTracker,
	c cache.Service,
	chClient *pkgch.Client,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Server.Metrics.Enabled, cfg.Server.Metrics.Path),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithHealthCheck("cache", c.Ping),
	}
	if tracker != nil {
		opts = append(opts, xhttp.WithHealthCheck("stream", tracker.Health))
	}
	if chClient != nil {
		opts = append(opts, xhttp.WithHealthCheck("warehouse", chClient.Ping))
	}
	return xhttp.NewServer(handler, log, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	tracker *usecase.SpotTracker,
	publisher repository.ReportPublisher,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, httpServer, tracker, publisher, c, chClient)
}
