package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/serializer"
	"github.com/shaiso/Harvester/internal/telemetry"
)

// scrapePrefetch — неподтверждённых доставок на очередь *_scraper.
const scrapePrefetch = 1

// Listener подписывает обработчик на очередь. Реализуется mq.Registry.
type Listener interface {
	Listen(ctx context.Context, p mq.ListenParams) error
}

// Publisher публикует сообщение в очередь. Реализуется mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue mq.Queue, payload any) (string, error)
}

// Worker обрабатывает запросы на сбор данных.
//
// Worker:
//   - Подписывается на очереди *_scraper всех источников
//   - Ставит каждый сбор в общий Serializer
//   - Публикует результат в парную очередь *_store
type Worker struct {
	consumers  Listener
	publisher  Publisher
	executors  *Registry
	serializer *serializer.Serializer
	sources    []domain.Source

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// MQ
	Consumers Listener
	Publisher Publisher

	// Executors — реестр executor'ов (обязательно).
	Executors *Registry

	// Serializer (опционально; если nil — создаётся новый)
	Serializer *serializer.Serializer

	// Sources — обслуживаемые источники (default: все).
	Sources []domain.Source

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "worker")

	s := cfg.Serializer
	if s == nil {
		s = serializer.New(logger)
	}

	sources := cfg.Sources
	if len(sources) == 0 {
		sources = domain.Sources()
	}

	return &Worker{
		consumers:  cfg.Consumers,
		publisher:  cfg.Publisher,
		executors:  cfg.Executors,
		serializer: s,
		sources:    sources,
		logger:     logger,
	}
}

// Start подписывает обработчики на очереди *_scraper.
//
// Ошибка подписки на любую очередь возвращается; уже запущенные
// подписки останавливаются.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	for _, source := range w.sources {
		route, err := mq.RouteFor(string(source))
		if err != nil {
			cancel()
			return err
		}

		executor, err := w.executors.Get(source)
		if err != nil {
			cancel()
			return err
		}

		err = w.consumers.Listen(ctx, mq.ListenParams{
			Queue:    route.Scraper,
			Handler:  w.handleScrape(source, route, executor),
			Prefetch: scrapePrefetch,
		})
		if err != nil {
			cancel()
			return fmt.Errorf("register %s consumer: %w", source, err)
		}
	}

	w.logger.Info("worker started", "sources", w.sources)
	return nil
}

// Stop останавливает подписки.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
