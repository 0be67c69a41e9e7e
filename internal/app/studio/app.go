// Package studio собирает зависимости основного HTTP-сервиса и управляет его
// жизненным циклом.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/practice-studio/internal/cache"
	"github.com/magabrotheeeer/practice-studio/internal/config"
	"github.com/magabrotheeeer/practice-studio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/practice-studio/internal/lib/jwt"
	"github.com/magabrotheeeer/practice-studio/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/metrics"
	"github.com/magabrotheeeer/practice-studio/internal/migrations"
	"github.com/magabrotheeeer/practice-studio/internal/progression"
	"github.com/magabrotheeeer/practice-studio/internal/services/access"
	"github.com/magabrotheeeer/practice-studio/internal/services/progress"
	"github.com/magabrotheeeer/practice-studio/internal/storage"
)

type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "studio.New"

	policy := progression.Policy{
		PointsPerCompletion: cfg.Progression.PointsPerCompletion,
		MinutesPerSession:   cfg.Progression.MinutesPerSession,
		CompletionThreshold: cfg.Progression.CompletionThreshold,
	}
	engine, err := progression.NewEngine(progression.DefaultLevels(), progression.DefaultBadges(), policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	// События прогресса необязательны: без адреса брокера сервис работает без уведомлений.
	var publisher progress.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.GetProgressQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
		publisher = app.publisher
	} else {
		logger.Warn("rabbitmq url is empty, progress events are disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	accessService := access.NewService(db, cacheRedis, m, logger, cfg.RedisConnection.CacheTTL, cfg.Trial.Length)
	progressService := progress.NewService(engine, db, publisher, m, logger, cfg.Progression.MaxSwapRetries)
	tokens := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	limiter := middlewarectx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:   logger,
		Access:   accessService,
		Progress: progressService,
		Tokens:   tokens,
		Limiter:  limiter,
		Health:   db,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
