// Harvester Store — сохраняет собранные данные в PostgreSQL.
//
// Store:
//   - Получает результаты из очередей *_store
//   - Записывает их идемпотентно (повторная доставка не создаёт дублей)
//   - Пересылает новые статьи The News в the_news_article_generation
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Harvester/internal/config"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/repo"
	"github.com/shaiso/Harvester/internal/store"
	"github.com/shaiso/Harvester/internal/telemetry"
)

const serviceName = "harvester-store"

func main() {
	logger := telemetry.SetupLogger(serviceName)
	logger.Info("starting " + serviceName)

	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	conn := mq.NewConnection(mq.ConnectionConfig{
		URL:        cfg.Broker.URL,
		RetryDelay: cfg.Broker.ConnectRetryDelay,
		Logger:     logger,
	})
	if err := conn.Connect(ctx); err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	logger.Info("RabbitMQ connected")

	publisher := mq.NewPublisher(conn, logger)
	registry := mq.NewRegistry(conn, publisher, mq.RegistryConfig{
		RetryBackoff: cfg.Broker.RetryBackoff,
		Logger:       logger,
	})

	s := store.New(store.Config{
		Consumers: registry,
		Ptax:      repo.NewPtaxRepo(pool),
		Cme:       repo.NewCmeRepo(pool),
		Articles:  repo.NewArticleRepo(pool),
		Publisher: publisher,
		Prefetch:  cfg.Store.Prefetch,
		Logger:    logger,
	})

	if err := s.Start(ctx); err != nil {
		logger.Error("failed to start store", "error", err)
		conn.Close()
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	srv := &http.Server{Addr: cfg.HTTP.Address, Handler: telemetry.NewServeMux(conn.IsConnected)}
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	select {
	case <-ctx.Done():
	case <-conn.Dropped():
		logger.Error("RabbitMQ connection lost, shutting down")
		cancel()
	}

	s.Stop()
	registry.Wait()
	publisher.Close()
	if err := conn.Close(); err != nil && !errors.Is(err, mq.ErrNotConnected) {
		logger.Warn("failed to close RabbitMQ connection", "error", err)
	}
	srv.Shutdown(context.Background())
	logger.Info(serviceName + " stopped")
}
