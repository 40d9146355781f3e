// Storefront - session-holding web backend for the clothing shop.
// Serves JSON views and an MCP endpoint over the shop API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/adapter"
	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/credentials"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger := initLogger(cfg)
	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("backend_url", cfg.Backend.URL),
		slog.String("storage", cfg.Storage.Driver),
	)

	store, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeStore()

	rt, err := transport.New(cfg.Backend.Timeout.Std(), cfg.BreakerConfig())
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}
	gateway, err := backend.New(backend.Config{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout.Std(),
		Transport: rt,
		Currency:  cfg.Backend.Currency,
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	sessions, err := session.NewManager(session.Config{
		Secret:  []byte(cfg.Session.Secret),
		IdleTTL: cfg.Session.IdleTTL.Std(),
		Secure:  cfg.Session.Secure,
		Mirror:  cfg.MirrorConfig(),
	}, store, func(creds *credentials.Store) adapter.Backend {
		return gateway.WithCredentials(creds)
	}, logger)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	go sessions.Run(ctx)

	h := handler.New(sessions, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
		// Drain queued cart and wishlist writes before exiting.
		sessions.Close(shutdownCtx)
	}

	logger.Info("server stopped")
	return nil
}

// openStorage builds the session local store for the configured driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Namespacer, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		f, err := storage.OpenFile(cfg.Storage.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return storage.NewRedis(client, "storefront", cfg.Storage.RedisTTL.Std()), func() { client.Close() }, nil
	default:
		return storage.NewMemory(), func() {}, nil
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
func initLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var logger *slog.Logger
	if cfg.Environment == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)
	return logger
}
