// Package app wires together all dependencies and runs the back-office
// service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/yosseffehabb/illusion-studios/internal/auth"
	"github.com/yosseffehabb/illusion-studios/internal/cache"
	"github.com/yosseffehabb/illusion-studios/internal/config"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	"github.com/yosseffehabb/illusion-studios/internal/gateway/postgres"
	"github.com/yosseffehabb/illusion-studios/internal/gateway/rest"
	handler "github.com/yosseffehabb/illusion-studios/internal/handler/http"
	"github.com/yosseffehabb/illusion-studios/internal/integrity"
	"github.com/yosseffehabb/illusion-studios/internal/service"
	"github.com/yosseffehabb/illusion-studios/pkg/health"
	pkgkafka "github.com/yosseffehabb/illusion-studios/pkg/kafka"
)

// App holds the long-lived resources of the service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthHandler := health.NewHandler()

	// Record store gateway. Both adapters satisfy the same interfaces; the
	// rest of the service never knows which one is live.
	var (
		stores gateway.Stores
		pool   *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		p, err := postgres.NewPool(ctx, cfg.PostgresDSN(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		pool = p
		stores = gateway.Stores{
			Categories: postgres.NewCategoryStore(p),
			Products:   postgres.NewProductStore(p),
			Orders:     postgres.NewOrderStore(p),
		}
		healthHandler.Register("records", func(ctx context.Context) error {
			return p.Ping(ctx)
		})
		logger.Info("record store backend: postgres",
			slog.String("host", cfg.PostgresHost),
			slog.String("database", cfg.PostgresDB),
		)
	case config.BackendREST:
		client := rest.New(cfg.RESTBaseURL, cfg.RESTTimeout(), logger)
		stores = gateway.Stores{
			Categories: rest.NewCategoryStore(client),
			Products:   rest.NewProductStore(client),
			Orders:     rest.NewOrderStore(client),
		}
		healthHandler.Register("records", client.Ping)
		logger.Info("record store backend: rest", slog.String("url", cfg.RESTBaseURL))
	default:
		return nil, fmt.Errorf("unknown record store backend: %q", cfg.StoreBackend)
	}

	// Redis-backed operator sessions.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	sessions := auth.NewManager(auth.NewRedisSessionStore(redisClient), cfg.SessionTTL(), logger)
	healthHandler.Register("sessions", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Kafka producer for catalog and order events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	events := event.NewProducer(producer, logger)
	healthHandler.Register("events", producer.Ping)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Mutation coordinator. Session changes flush every cached view so a new
	// operator never starts on another session's snapshots.
	coordinator := cache.New(cfg.CacheTTL(), logger)
	sessions.OnSessionChange(coordinator.Clear)

	guard := integrity.NewGuard(stores.Products)
	catalog := service.NewCatalogService(stores.Categories, stores.Products, guard, coordinator, events, logger)
	orders := service.NewOrderService(stores.Orders, coordinator, events, logger)

	router := handler.NewRouter(catalog, orders, sessions, healthHandler, handler.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain in-flight HTTP requests,
// then close the Kafka producer, the Redis client and the store pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
