package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/eventstats-api/internal/analytics"
	analyticsstore "github.com/serroba/eventstats-api/internal/analytics/store"
	"github.com/serroba/eventstats-api/internal/dataset"
	"github.com/serroba/eventstats-api/internal/handlers"
	"github.com/serroba/eventstats-api/internal/health"
	"github.com/serroba/eventstats-api/internal/messaging"
	"github.com/serroba/eventstats-api/internal/middleware"
	"github.com/serroba/eventstats-api/internal/ratelimit"
	"github.com/serroba/eventstats-api/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Names of the background groups.
const (
	BackgroundGroup = "background"
	ConsumerGroup   = "consumers"
)

const requestIDLength = 21

// Options configures the service. Every field can be set by flag or by a
// SERVICE_ prefixed environment variable.
type Options struct {
	Port              int           `default:"8888"           help:"Port to listen on"                                  short:"p"`
	DatabaseURL       string        `default:""               help:"PostgreSQL connection URL"                          short:"d"`
	RedisAddr         string        `default:"localhost:6379" help:"Redis server address"                               short:"r"`
	LogFormat         string        `default:"console"        help:"Log format (console or json)"`
	LogLevel          string        `default:"info"           help:"Log level (debug, info, warn, error)"`
	RateLimit         int           `default:"100"            help:"Requests admitted per client and window"`
	RateWindow        time.Duration `default:"1m"             help:"Rate limit window"`
	RateIdleTTL       time.Duration `default:"5m"             help:"Forget clients idle for longer than this"`
	RateSweepInterval time.Duration `default:"0s"             help:"Idle client sweep interval (0 picks half the idle TTL)"`
	RateAlgorithm     string        `default:"sliding"        help:"Accounting algorithm (sliding, fixed or token_bucket)"`
	RateKey           string        `default:"ip"             help:"Client identity (ip or ip_user_agent)"`
	TrustProxy        bool          `default:"false"          help:"Honor X-Forwarded-For and X-Real-IP"`
	CacheTTL          time.Duration `default:"30s"            help:"Query cache TTL (0 disables caching)"`
	AnalyticsBuffer   int           `default:"1024"           help:"Pending rate limit events kept before dropping"`
}

// RateLimitConfig maps the options onto the limiter configuration.
func (o *Options) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		Limit:         o.RateLimit,
		Window:        o.RateWindow,
		IdleTTL:       o.RateIdleTTL,
		SweepInterval: o.RateSweepInterval,
		Algorithm:     ratelimit.Algorithm(o.RateAlgorithm),
	}
}

// LoggerPackage provides the root *zap.Logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// NewLogger builds a JSON production logger or a console development logger.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}

		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}

// PostgresPackage provides the connection pool and the query store on top of it.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*pgxpool.Pool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("cannot create postgres pool: %w", err)
		}

		return pool, nil
	})

	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		return store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: opts.RedisAddr}), nil
	})
}

// RepositoryPackage provides the dataset.Repository served by the routes,
// behind the Redis cache unless CacheTTL is zero.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (dataset.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		pg := do.MustInvoke[*store.PostgresStore](i)

		if opts.CacheTTL <= 0 {
			return pg, nil
		}

		return store.NewRedisCacheRepository(
			pg,
			do.MustInvoke[*redis.Client](i),
			opts.CacheTTL,
			do.MustInvoke[*zap.Logger](i).Named("cache"),
		), nil
	})
}

// MetricsPackage provides the Prometheus registry exposed on /metrics.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return registry, nil
	})
}

// RateLimitPackage provides the client store, the admission engine and the
// idle sweeper. Invoking the limiter or the sweeper fails with
// ratelimit.ErrMisconfiguredLimit when the options are invalid.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*ratelimit.Store, error) {
		return ratelimit.NewStore(0), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.Metrics, error) {
		return ratelimit.NewMetrics(
			do.MustInvoke[*prometheus.Registry](i),
			do.MustInvoke[*ratelimit.Store](i),
		)
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.WindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewWindowLimiter(
			do.MustInvoke[*ratelimit.Store](i),
			opts.RateLimitConfig(),
			ratelimit.WithLogger(do.MustInvoke[*zap.Logger](i)),
			ratelimit.WithMetrics(do.MustInvoke[*ratelimit.Metrics](i)),
		)
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewSweeper(
			do.MustInvoke[*ratelimit.Store](i),
			opts.RateLimitConfig(),
			ratelimit.WithLogger(do.MustInvoke[*zap.Logger](i)),
			ratelimit.WithMetrics(do.MustInvoke[*ratelimit.Metrics](i)),
		)
	})
}

// PublisherGroupPackage provides the Redis stream publisher and the
// background group running the sweeper and the analytics recorder.
// The group closes the publisher and the Redis client once both have stopped.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (message.Publisher, error) {
		logger := do.MustInvoke[*zap.Logger](i).Named("publisher")

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     do.MustInvoke[*redis.Client](i),
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("cannot create redis stream publisher: %w", err)
		}

		return publisher, nil
	})

	do.ProvideNamed(i, BackgroundGroup, func(i *do.Injector) (*messaging.Group, error) {
		sweeper, err := do.Invoke[*ratelimit.Sweeper](i)
		if err != nil {
			return nil, err
		}

		group := messaging.NewGroup(BackgroundGroup, do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[message.Publisher](i),
			do.MustInvoke[*redis.Client](i),
		)
		group.Add(sweeper)
		group.Add(do.MustInvoke[*analytics.Recorder](i))

		return group, nil
	})
}

// AnalyticsPackage provides the recorder that ships rejections to the stream.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Recorder, error) {
		opts := do.MustInvoke[*Options](i)

		publish := messaging.NewPublishFunc[analytics.RateLimitedEvent](
			do.MustInvoke[message.Publisher](i),
			analytics.TopicRateLimited,
			func(e *analytics.RateLimitedEvent) string { return e.RequestID },
		)

		return analytics.NewRecorder(
			publish,
			opts.AnalyticsBuffer,
			do.MustInvoke[*prometheus.Registry](i),
			do.MustInvoke[*zap.Logger](i).Named("analytics"),
		)
	})
}

// HTTPPackage provides the root router and the huma API with middleware and
// routes registered. The API lives on a sub-router mounted at "/" whose
// middleware sees every request, matched or not. /metrics stays on the root
// router, outside the limiter.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		registry := do.MustInvoke[*prometheus.Registry](i)

		router := chi.NewMux()
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		limiter, err := do.Invoke[*ratelimit.WindowLimiter](i)
		if err != nil {
			return nil, err
		}

		keyFn, err := middleware.NewKeyFunc(opts.RateKey, opts.TrustProxy)
		if err != nil {
			return nil, err
		}

		newID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("cannot create request id generator: %w", err)
		}

		// chi requires middleware before the first route; humachi.New adds the docs routes.
		router := chi.NewRouter()
		router.Use(
			middleware.RequestMeta(newID, opts.TrustProxy),
			middleware.RateLimiter(limiter, middleware.RateLimitConfig{
				Key:       keyFn,
				Algorithm: limiter.Config().Algorithm,
				Recorder:  do.MustInvoke[*analytics.Recorder](i),
				Logger:    logger.Named("http"),
			}),
		)

		api := humachi.New(router, huma.DefaultConfig("EventStats API", "1.0.0"))

		handlers.RegisterRoutes(api,
			handlers.NewQueryHandler(do.MustInvoke[dataset.Repository](i), logger.Named("query")),
			dataset.Catalog,
		)
		health.RegisterRoutes(api, health.NewHandler(
			do.MustInvoke[*pgxpool.Pool](i),
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
		))

		do.MustInvoke[*chi.Mux](i).Mount("/", router)

		return api, nil
	})
}

// ConsumerGroupPackage provides the group consuming rate limit events. Events
// are stored in PostgreSQL, or only logged when no database is configured.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("events")

		if opts.DatabaseURL == "" {
			logger.Info("no database configured, rate limit events are only logged")

			return analyticsstore.NewNoop(logger), nil
		}

		return analyticsstore.NewPostgres(context.Background(), do.MustInvoke[*pgxpool.Pool](i))
	})

	do.ProvideNamed(i, ConsumerGroup, func(i *do.Injector) (*messaging.Group, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		eventStore, err := do.Invoke[analytics.Store](i)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*redis.Client](i),
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: "analytics",
		}, messaging.NewZapLogger(logger.Named("subscriber")))
		if err != nil {
			return nil, fmt.Errorf("cannot create redis stream subscriber: %w", err)
		}

		group := messaging.NewGroup(ConsumerGroup, logger, subscriber, do.MustInvoke[*redis.Client](i))
		group.Add(messaging.NewConsumer[analytics.RateLimitedEvent](
			subscriber,
			analytics.TopicRateLimited,
			eventStore.SaveRateLimited,
			logger.Named("consumer"),
		))

		return group, nil
	})
}
