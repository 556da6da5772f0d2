package di

import (
	"context"
	"fmt"
	"time"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/repository"
	"AgriIntel/internal/handler/api"
	internalrepo "AgriIntel/internal/repository"
	"AgriIntel/internal/service/cache"
	svcmetrics "AgriIntel/internal/service/metrics"
	"AgriIntel/internal/service/ratelimit"
	"AgriIntel/internal/services/analytics"
	"AgriIntel/internal/usecase"
	pkgch "AgriIntel/pkg/clickhouse"
	"AgriIntel/pkg/config"
	xhttp "AgriIntel/pkg/http"
	pkgkafka "AgriIntel/pkg/kafka"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
	"AgriIntel/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register(prometheus.DefaultRegisterer)
	return metrics.New()
}

func clickHouseOptions(cfg *config.Config) []pkgch.ClientOption {
	return []pkgch.ClientOption{
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	}
}

func openClickHouse(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The target database may not exist yet, so DDL runs over "default".
	boot, err := pkgch.NewClient(ctx, append(clickHouseOptions(cfg), pkgch.WithDatabase("default"))...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse bootstrap: %w", err)
	}
	err = boot.InitSchema(ctx, internalrepo.PriceSchema(cfg.ClickHouse.Database))
	_ = boot.Close()
	if err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	client, err := pkgch.NewClient(ctx, clickHouseOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideClickHouseClient connects to ClickHouse when enabled. A failed
// connection is logged and yields nil so history falls back to synthetic data.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) *pkgch.Client {
	if !cfg.ClickHouse.Enabled {
		l.Info("clickhouse disabled")
		return nil
	}
	client, err := openClickHouse(cfg)
	if err != nil {
		l.Error("clickhouse unavailable", applogger.String("host", cfg.ClickHouse.Host), applogger.Error(err))
		return nil
	}
	l.Info("clickhouse connected", applogger.String("database", cfg.ClickHouse.Database))
	return client
}

// ProvidePriceStore returns nil when no ClickHouse client is available.
func ProvidePriceStore(ch *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	if ch == nil {
		return nil
	}
	store := internalrepo.NewCHPriceStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideHistoryCache uses Redis when enabled and reachable, else an in-process TTL cache.
func ProvideHistoryCache(cfg *config.Config, l *applogger.Logger) cache.BytesCache {
	if cfg.Redis.Enabled {
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "agri:",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Ping(ctx)
		if err == nil {
			l.Info("history cache: redis", applogger.String("addr", cfg.Redis.Addr))
			return rc
		}
		l.Warn("redis unavailable, using in-process cache", applogger.Error(err))
		_ = rc.Close()
	}
	return cache.NewTTLCache()
}

// ProvideModelRegistry loads the model contracts once at startup.
func ProvideModelRegistry(cfg *config.Config, l *applogger.Logger) *analytics.Registry {
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Models.Timeout+time.Second)
	defer cancel()
	return analytics.LoadRegistry(ctx, cfg, l)
}

func ProvideHistorySource(
	cfg *config.Config,
	store repository.PriceStore,
	c cache.BytesCache,
	mt repository.Metrics,
	l *applogger.Logger,
) *usecase.HistorySource {
	return usecase.NewHistorySource(store, l,
		usecase.WithHistoryCache(c, cfg.Redis.HistoryTTL),
		usecase.WithHistoryLimit(cfg.History.Limit, cfg.History.MinPoints),
		usecase.WithSyntheticFallback(cfg.History.SyntheticFallback),
		usecase.WithHistoryMetrics(mt),
	)
}

func ProvideForecaster(reg *analytics.Registry, h *usecase.HistorySource, mt repository.Metrics, l *applogger.Logger) *usecase.Forecaster {
	return usecase.NewForecaster(reg, h, mt, l)
}

func ProvideSpoilageEstimator(reg *analytics.Registry, mt repository.Metrics, l *applogger.Logger) *usecase.SpoilageEstimator {
	return usecase.NewSpoilageEstimator(reg, mt, l)
}

func ProvideDecisionEngine(f *usecase.Forecaster, s *usecase.SpoilageEstimator, mt repository.Metrics, l *applogger.Logger) *usecase.DecisionEngine {
	return usecase.NewDecisionEngine(f, s, mt, l)
}

// ProvideAgriHandler builds the API handler with per-client rate limiting on /api.
func ProvideAgriHandler(
	cfg *config.Config,
	l *applogger.Logger,
	reg *analytics.Registry,
	f *usecase.Forecaster,
	s *usecase.SpoilageEstimator,
	d *usecase.DecisionEngine,
) *api.AgriEchoHandler {
	h := api.NewAgriEchoHandler(l, reg, f, s, d)
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		h.Use(ratelimit.New(rl.Capacity, rl.RefillPerSec).Middleware())
	}
	return h
}

func ProvideHTTPServer(cfg *config.Config, h *api.AgriEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRequestTimeout(cfg.Server.RequestTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithTrustedProxies(cfg.Server.TrustedProxies),
	)
}

// ProvideKafkaConsumer creates the ingest consumer, or nil when Kafka is disabled.
// Validation failures are not retried.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerRetryable(func(err error) bool { return !errs.IsValidation(err) }),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideIngestHandler returns nil when there is no store to write to.
func ProvideIngestHandler(
	cfg *config.Config,
	store repository.PriceStore,
	h *usecase.HistorySource,
	mt repository.Metrics,
	l *applogger.Logger,
) *usecase.PriceIngestHandler {
	if store == nil {
		return nil
	}
	return usecase.NewPriceIngestHandler(cfg.Kafka.Topic, store, h, mt, l)
}

// ProvideApp assembles the lifecycle. Optional components that are nil stay out of it.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest *usecase.PriceIngestHandler,
	reg *analytics.Registry,
	ch *pkgch.Client,
	c cache.BytesCache,
) *server.App {
	var (
		sc server.Consumer
		mh pkgkafka.MessageHandler
	)
	if consumer != nil && ingest != nil {
		sc, mh = consumer, ingest
	} else if consumer != nil {
		l.Warn("kafka enabled without a price store, ingest consumer not started")
	}

	app := server.New(l, srv, sc, mh, cfg.Server.ShutdownTimeout)
	if rc, ok := c.(*cache.RedisCache); ok {
		app.OnShutdown("redis", rc.Close)
	}
	if ch != nil {
		app.OnShutdown("clickhouse", ch.Close)
	}
	app.OnShutdown("models", func() error {
		reg.Close()
		return nil
	})
	return app
}

// ProvideFeedProcessor builds the price feed for the configured backend. The
// cleanup closes whichever backend was opened.
func ProvideFeedProcessor(cfg *config.Config, mt repository.Metrics) (*usecase.PriceProcessor, func(), error) {
	switch cfg.Backend.Type {
	case usecase.BackendKafka:
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		pub := internalrepo.NewKafkaPricePublisher(producer, cfg.Kafka.Topic)
		p := usecase.NewPriceProcessor(pub, nil, mt, cfg.Backend.Type, cfg.Backend.BatchSize)
		return p, p.Close, nil
	case usecase.BackendClickHouse:
		client, err := openClickHouse(cfg)
		if err != nil {
			return nil, nil, err
		}
		p := usecase.NewPriceProcessor(nil, internalrepo.NewCHPriceStore(client), mt, cfg.Backend.Type, cfg.Backend.BatchSize)
		return p, func() {
			p.Close()
			_ = client.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend.Type)
	}
}
