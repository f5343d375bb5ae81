package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"atelier/internal/broker"
	"atelier/internal/config"
	"atelier/internal/constants"
	"atelier/internal/customization"
	"atelier/internal/logger"
	"atelier/internal/variant"
	"atelier/internal/variant/provider"
	"atelier/pkg/bootstrap"
	"atelier/pkg/health"
	"atelier/pkg/logging"
	"atelier/pkg/metrics"
	"atelier/pkg/middleware"
	"atelier/pkg/models"
	"atelier/pkg/ratelimit"
	"atelier/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	service        *customization.Service
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("customization-service")
	}
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initService(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "customization-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterCustomizationMetrics()
	metrics.RegisterBrokerMetrics()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
		Handler: a.router,
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	if mongoClient == nil {
		return fmt.Errorf("mongodb is required: set database.mongodb.uri")
	}
	a.mongoClient = mongoClient

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("postgresql is required: set database.postgres.host")
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		initCtx := logging.WithServiceName(ctx, "customization-service")
		a.logger.WarnwCtx(initCtx, "Redis unavailable, variant lookups will not be cached",
			"error", err,
		)
	} else {
		a.redisClient = redisClient
	}

	return nil
}

func (a *App) initService(ctx context.Context) error {
	dbName := a.config.Database.MongoDB.Database
	if dbName == "" {
		dbName = constants.DefaultMongoDBName
	}
	repo := customization.NewRepository(a.mongoClient.Database(dbName), a.db, a.logger)

	variants := variant.NewResolver(a.buildAssetIndex())

	svc, err := customization.NewService(repo, variants, a.config.Customization, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create customization service: %w", err)
	}

	if err := svc.ReloadModels(ctx); err != nil {
		initCtx := logging.WithServiceName(ctx, "customization-service")
		a.logger.WarnwCtx(initCtx, "Failed to load initial product models",
			"error", err,
		)
	}

	a.service = svc
	return nil
}

func (a *App) buildAssetIndex() provider.AssetIndex {
	timeout := time.Duration(a.config.AssetIndex.TimeoutSeconds) * time.Second
	var index provider.AssetIndex = provider.NewHTTPAssetIndex(a.config.AssetIndex.Endpoint, a.config.AssetIndex.Headers, timeout)

	if a.redisClient != nil && a.config.AssetIndex.CacheTTLSeconds > 0 {
		ttl := time.Duration(a.config.AssetIndex.CacheTTLSeconds) * time.Second
		index = provider.NewCachedAssetIndex(a.redisClient, index, ttl)
	}

	if a.config.CircuitBreaker.Enabled {
		index = provider.WrapWithCircuitBreaker(index, "asset-index", a.config.CircuitBreaker)
	}

	return index
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("customization-service"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.Customization.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.Customization.RateLimit.RPS,
			Burst:           a.config.Customization.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.Customization.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.Customization.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.InfowCtx(context.Background(), "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	handler := customization.NewHandler(a.service, a.logger)
	handler.RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "HTTP server starting", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	configConsumer, err := broker.NewConsumer(a.config.Broker, a.logger)
	if err != nil {
		configCtx := logging.WithServiceName(ctx, "customization-service")
		a.logger.WarnwCtx(configCtx, "Failed to create config event consumer, event-driven reload disabled",
			"error", err,
		)
	} else {
		configConsumer.SetServiceName("customization-service")
		defer configConsumer.Close()
		configEventHandler := customization.NewEventHandler(a.service, a.logger)

		g.Go(func() error {
			configCtx := logging.WithServiceName(gCtx, "customization-service")
			a.logger.InfowCtx(configCtx, "Starting config update event consumer",
				"topic", a.config.Broker.Kafka.ConfigUpdateTopic,
			)
			return configConsumer.Consume(gCtx, a.config.Broker.Kafka.ConfigUpdateTopic, func(cCtx context.Context, msg models.MessageEnvelope) error {
				return configEventHandler.HandleConfigUpdateEvent(cCtx, msg)
			})
		})
	}

	g.Go(func() error {
		return a.service.StartReloader(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "customization-service")
	a.logger.InfowCtx(shutdownCtx, "Shutting down customization service")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(timeoutCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(shutdownCtx, "Customization service exited")
	return nil
}
