package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/souvik017/livefeed/internal/app"
	"github.com/souvik017/livefeed/internal/auth"
	"github.com/souvik017/livefeed/internal/config"
	"github.com/souvik017/livefeed/internal/domain"
	"github.com/souvik017/livefeed/internal/logging"
	"github.com/souvik017/livefeed/internal/nats"
	"github.com/souvik017/livefeed/internal/postgres"
	"github.com/souvik017/livefeed/internal/redis"
	"github.com/souvik017/livefeed/internal/server"
	"github.com/souvik017/livefeed/internal/websocket"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupBus(cfg *config.Config, redisClient *goredis.Client) (domain.ChangeBus, func()) {
	if cfg.Broker == config.BrokerNATS {
		bus, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		return bus, bus.Close
	}
	return redis.NewBus(redisClient), func() {}
}

func runGracefulShutdown(srv *server.Server, hub *websocket.Hub, relayCancel context.CancelFunc, closeBus func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		relayCancel()
		hub.Stop()
		closeBus()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "broker", cfg.Broker)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	bus, closeBus := setupBus(cfg, redisClient)

	feedCache := redis.NewFeedCache(redisClient, cfg.FeedCacheTTL)
	postRepo := postgres.NewPostRepo(pool)
	userRepo := postgres.NewUserRepo(pool)

	appSvc := app.NewService(postRepo, userRepo, feedCache, bus)

	hub := websocket.NewHub(cfg.MaxWebSocketConnections, clock)
	wsHandler := websocket.NewHandler(hub, cfg.ClientURL)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	relay := websocket.NewRelay(bus, hub)
	go func() {
		if err := relay.Run(relayCtx); err != nil {
			slog.Error("Change event relay stopped", "error", err)
		}
	}()

	verifier := auth.NewVerifier(cfg.JWTSecret)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := server.NewServer(cfg, appSvc, verifier, userRepo, wsHandler.ServeWS, healthChecks)

	done := runGracefulShutdown(srv, hub, relayCancel, closeBus)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
