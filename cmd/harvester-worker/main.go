// Harvester Worker — собирает данные источников через headless-браузер.
//
// Worker:
//   - Получает запросы из очередей *_scraper
//   - Выполняет сбор строго по одному (общая очередь Serializer)
//   - Публикует результат в парную очередь *_store
//   - Неудачный сбор повторяется через RETRY_BACKOFF, не более 3 раз
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Harvester/internal/browser"
	"github.com/shaiso/Harvester/internal/config"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/telemetry"
	"github.com/shaiso/Harvester/internal/worker"
)

const serviceName = "harvester-worker"

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger(serviceName)
	logger.Info("starting " + serviceName)

	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RabbitMQ: Connect блокируется до успешного подключения
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
	logger.Debug(mq.TopologyInfo())

	publisher := mq.NewPublisher(conn, logger)
	registry := mq.NewRegistry(conn, publisher, mq.RegistryConfig{
		RetryBackoff: cfg.Broker.RetryBackoff,
		Logger:       logger,
	})

	// Браузеры
	pool, err := browser.NewPool(ctx, browser.PoolConfig{
		Size:      cfg.Browser.PoolSize,
		RemoteURL: cfg.Browser.RemoteURL,
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
		Timeout:   cfg.Browser.Timeout,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to start browser pool", "error", err)
		conn.Close()
		os.Exit(1)
	}
	logger.Info("browser pool started", "size", cfg.Browser.PoolSize)

	// Создаём worker
	w := worker.New(worker.Config{
		Consumers: registry,
		Publisher: publisher,
		Executors: worker.NewRegistry(worker.ExecutorConfig{
			Browser:        pool,
			PtaxBaseURL:    cfg.Sources.PtaxBaseURL,
			CmeBaseURL:     cfg.Sources.CmeBaseURL,
			TheNewsBaseURL: cfg.Sources.TheNewsBaseURL,
		}),
		Logger: logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		pool.Close()
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

	// Ожидаем сигнал завершения или разрыв соединения с брокером
	select {
	case <-ctx.Done():
	case <-conn.Dropped():
		logger.Error("RabbitMQ connection lost, shutting down")
		cancel()
	}

	// Останавливаем worker
	w.Stop()
	registry.Wait()
	pool.Close()
	publisher.Close()
	if err := conn.Close(); err != nil && !errors.Is(err, mq.ErrNotConnected) {
		logger.Warn("failed to close RabbitMQ connection", "error", err)
	}
	srv.Shutdown(context.Background())
	logger.Info(serviceName + " stopped")
}
