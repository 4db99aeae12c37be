// Harvester Scheduler — публикует запросы на сбор данных по cron-расписанию.
//
// Расписание задаётся переменными SCHEDULE_PTAX, SCHEDULE_CME, SCHEDULE_THE_NEWS
// в часовом поясе SCHEDULE_TZ. При SCHEDULE_LEADER_ELECTION=true публикует
// только экземпляр, удерживающий advisory lock в PostgreSQL.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Harvester/internal/config"
	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/repo"
	"github.com/shaiso/Harvester/internal/scheduler"
	"github.com/shaiso/Harvester/internal/telemetry"
)

const serviceName = "harvester-scheduler"

func main() {
	logger := telemetry.SetupLogger(serviceName)
	logger.Info("starting " + serviceName)

	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Leader election (опционально)
	var leader scheduler.Leader
	if cfg.Schedule.LeaderElection {
		pool, err := repo.NewPool(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("database connected, leader election enabled")
		leader = repo.NewAdvisoryLock(pool, repo.SchedulerLockKey)
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

	specs := map[domain.Source]string{
		domain.SourcePtax:    cfg.Schedule.Ptax,
		domain.SourceCme:     cfg.Schedule.Cme,
		domain.SourceTheNews: cfg.Schedule.TheNews,
	}
	var jobs []scheduler.Job
	for _, source := range domain.Sources() {
		if spec := specs[source]; spec != "" {
			jobs = append(jobs, scheduler.Job{Source: source, Spec: spec})
		}
	}

	sched, err := scheduler.New(scheduler.Config{
		Publisher: publisher,
		Jobs:      jobs,
		Location:  loc,
		Leader:    leader,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		conn.Close()
		os.Exit(1)
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
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

	sched.Stop()
	publisher.Close()
	if err := conn.Close(); err != nil && !errors.Is(err, mq.ErrNotConnected) {
		logger.Warn("failed to close RabbitMQ connection", "error", err)
	}
	srv.Shutdown(context.Background())
	logger.Info(serviceName + " stopped")
}
