package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/telemetry"
)

// DefaultTimezone — часовой пояс источников (биржевой день в Бразилии).
const DefaultTimezone = "America/Sao_Paulo"

// Publisher публикует сообщение в очередь. Реализуется mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue mq.Queue, payload any) (string, error)
}

// Leader — блокировка лидера между экземплярами планировщика.
// Реализуется repo.AdvisoryLock.
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Job — расписание сбора одного источника.
type Job struct {
	Source domain.Source
	Spec   string
}

// Config — конфигурация Scheduler.
type Config struct {
	Publisher Publisher
	Jobs      []Job

	// Location — часовой пояс расписания и даты запроса (default: America/Sao_Paulo).
	Location *time.Location

	// Leader (опционально) — без него публикует каждый экземпляр.
	Leader Leader

	Logger *slog.Logger

	// Now — источник времени (default: time.Now).
	Now func() time.Time
}

// Scheduler — планировщик сбора данных.
type Scheduler struct {
	publisher Publisher
	jobs      []Job
	loc       *time.Location
	leader    Leader
	logger    *slog.Logger
	now       func() time.Time

	cron *cron.Cron

	mu       sync.Mutex
	isLeader bool
}

// New создаёт Scheduler и проверяет расписание.
func New(cfg Config) (*Scheduler, error) {
	if len(cfg.Jobs) == 0 {
		return nil, ErrNoJobs
	}

	loc := cfg.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		publisher: cfg.Publisher,
		jobs:      cfg.Jobs,
		loc:       loc,
		leader:    cfg.Leader,
		logger:    telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "scheduler"),
		now:       now,
	}

	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)

	for _, job := range cfg.Jobs {
		if err := ValidateSpec(job.Spec); err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Source, err)
		}
		if _, err := mq.RouteFor(string(job.Source)); err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Source, err)
		}
	}

	return s, nil
}

// Start регистрирует задания и запускает cron.
// Срабатывания используют ctx; после его отмены публикации не выполняются.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			if ctx.Err() != nil {
				return
			}
			s.fire(ctx, job)
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", job.Source, err)
		}

		next, _ := NextRun(job.Spec, s.now(), s.loc)
		s.logger.Info("job scheduled", "source", job.Source, "spec", job.Spec, "next_run", next)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs), "timezone", s.loc.String())
	return nil
}

// Stop останавливает cron, ждёт выполняющиеся срабатывания и отпускает лидерство.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leader != nil && s.isLeader {
		if err := s.leader.Release(context.Background()); err != nil {
			s.logger.Warn("failed to release leader lock", "error", err)
		}
		s.isLeader = false
	}

	s.logger.Info("scheduler stopped")
}

// fire выполняет срабатывание задания, если экземпляр — лидер.
func (s *Scheduler) fire(ctx context.Context, job Job) {
	leader, err := s.acquire(ctx)
	if err != nil {
		s.logger.Error("leader lock failed", "source", job.Source, "error", err)
		telemetry.ScheduledTriggers.WithLabelValues(string(job.Source), "error").Inc()
		return
	}
	if !leader {
		s.logger.Debug("not a leader, skipping trigger", "source", job.Source)
		telemetry.ScheduledTriggers.WithLabelValues(string(job.Source), "skipped").Inc()
		return
	}

	if _, err := s.Trigger(ctx, job.Source); err != nil {
		s.logger.Error("scheduled trigger failed", "source", job.Source, "error", err)
	}
}

// acquire пытается стать лидером (или подтверждает лидерство).
func (s *Scheduler) acquire(ctx context.Context) (bool, error) {
	if s.leader == nil {
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isLeader {
		return true, nil
	}

	ok, err := s.leader.TryAcquire(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("became scheduler leader")
	}
	s.isLeader = ok
	return ok, nil
}

// Trigger публикует запрос на сбор источника за сегодняшнюю дату.
// Возвращает ID опубликованного сообщения.
func (s *Scheduler) Trigger(ctx context.Context, source domain.Source) (string, error) {
	route, err := mq.RouteFor(string(source))
	if err != nil {
		return "", err
	}

	req := domain.NewScrapeRequest(s.now().In(s.loc))
	id, err := s.publisher.Publish(ctx, route.Scraper, req)
	if err != nil {
		telemetry.ScheduledTriggers.WithLabelValues(string(source), "error").Inc()
		return "", fmt.Errorf("trigger %s: %w", source, err)
	}

	telemetry.ScheduledTriggers.WithLabelValues(string(source), "published").Inc()
	s.logger.Info("scrape request published",
		"source", source,
		"id", id,
		"queue", route.Scraper,
		"from_date", req.FromDate,
	)
	return id, nil
}

// cronLogger передаёт ошибки cron (panic в задании) в slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
