/**
 * @description
 * This is the main entry point for the payment-method-service. It loads
 * configuration, connects the store and the optional brokers, builds the
 * service and HTTP router, and runs the server until SIGINT/SIGTERM.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Distributed rate limiting (optional).
 * - github.com/sirupsen/logrus: Structured logging.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/middleware, pkg/rabbitmq: Auth, rate limiting and event publishing.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/transfa/payment-method-service/internal/api"
	"github.com/transfa/payment-method-service/internal/app"
	"github.com/transfa/payment-method-service/internal/config"
	"github.com/transfa/payment-method-service/internal/store"
	"github.com/transfa/payment-method-service/pkg/middleware"
	"github.com/transfa/payment-method-service/pkg/rabbitmq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithFields(logrus.Fields{"port": cfg.ServerPort, "store": cfg.StoreBackend}).Info("starting payment-method-service")

	repo, closeStore := openStore(cfg, logger)
	defer closeStore()

	var publisher app.EventPublisher
	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set; payment method events disabled")
	} else if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger); err != nil {
		logger.WithError(err).Warn("rabbitmq producer unavailable; payment method events disabled")
	} else {
		defer producer.Close()
		publisher = producer
		logger.Info("rabbitmq producer connected")
	}

	service := app.NewPaymentMethodService(repo, publisher, cfg.PaymentMethodExchange, logger)
	handler := api.NewPaymentMethodHandler(service, logger)

	var keys middleware.KeyProvider
	if cfg.ClerkJWKSURL != "" {
		cache := middleware.NewJWKSCache(cfg.ClerkJWKSURL, logger)
		initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
		if err := cache.Refresh(initCtx); err != nil {
			logger.WithError(err).Warn("initial jwks fetch failed; keys will be fetched on demand")
		}
		cancelInit()

		scheduler := app.NewScheduler(cache, cfg.JWKSRefreshSchedule, logger)
		if err := scheduler.Start(); err != nil {
			logger.WithError(err).Fatal("invalid JWKS_REFRESH_SCHEDULE")
		}
		defer scheduler.Stop()
		keys = cache
	} else {
		logger.Warn("CLERK_JWKS_URL not set; trusting X-User-Id header from the gateway")
	}

	router := api.NewRouter(handler, api.RouterOptions{
		Auth: middleware.AuthMiddleware(keys, middleware.AuthOptions{
			Audience: cfg.ClerkAudience,
			Issuer:   cfg.ClerkIssuer,
		}),
		RateLimit:      newRateLimit(cfg, logger),
		AllowedOrigins: cfg.Origins(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited")
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("invalid LOG_LEVEL; using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func openStore(cfg config.Config, logger *logrus.Logger) (store.PaymentMethodRepository, func()) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryPaymentMethodRepository(), func() {}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database url parse failed")
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	logger.Info("database connected")

	sealer, err := store.NewFieldSealer(cfg.CardEncryptionKey)
	if err != nil {
		logger.WithError(err).Fatal("invalid CARD_ENCRYPTION_KEY")
	}
	if sealer == nil {
		logger.Warn("CARD_ENCRYPTION_KEY not set; card fields stored in plaintext")
	}

	repo := store.NewPostgresPaymentMethodRepository(dbpool, sealer)
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("schema migration failed")
		}
		logger.Info("schema ensured")
	}
	return repo, dbpool.Close
}

func newRateLimit(cfg config.Config, logger *logrus.Logger) func(http.Handler) http.Handler {
	if cfg.RateLimitPerMinute <= 0 {
		logger.Warn("rate limiting disabled")
		return nil
	}

	onError := func(err error) {
		logger.WithError(err).Warn("rate limiter unavailable; allowing request")
	}

	if cfg.RedisURL != "" {
		redisOptions, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis url parse failed; using in-process rate limiter")
		} else {
			client := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.WithError(err).Warn("redis ping failed; using in-process rate limiter")
				client.Close()
			} else {
				logger.Info("redis connected")
				limiter := middleware.NewRedisLimiter(client, cfg.RedisRateLimitPrefix, "payment_methods", cfg.RateLimitPerMinute, time.Minute)
				return middleware.RateLimitMiddleware(limiter, cfg.RateLimitPerMinute, onError)
			}
		}
	}

	limiter := middleware.NewTokenBucketLimiter(cfg.RateLimitPerMinute)
	return middleware.RateLimitMiddleware(limiter, cfg.RateLimitPerMinute, onError)
}
