package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/telemetry"
)

const defaultPrefetch = 5

// Listener подписывает обработчик на очередь. Реализуется mq.Registry.
type Listener interface {
	Listen(ctx context.Context, p mq.ListenParams) error
}

// Publisher публикует сообщение в очередь. Реализуется mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue mq.Queue, payload any) (string, error)
}

// PtaxSink сохраняет курсы PTAX. Реализуется repo.PtaxRepo.
type PtaxSink interface {
	InsertRates(ctx context.Context, messageID string, rates []domain.PtaxRate) (int, error)
}

// CmeSink сохраняет котировки CME. Реализуется repo.CmeRepo.
type CmeSink interface {
	InsertQuote(ctx context.Context, messageID string, q domain.CmeQuote) (int, error)
}

// ArticleSink сохраняет статьи. Реализуется repo.ArticleRepo.
type ArticleSink interface {
	Insert(ctx context.Context, messageID string, a domain.NewsArticle) (int, error)
}

// Config — конфигурация Store.
type Config struct {
	Consumers Listener

	// Sinks. Для nil источник не обслуживается.
	Ptax     PtaxSink
	Cme      CmeSink
	Articles ArticleSink

	// Publisher (опционально) — пересылка статей в the_news_article_generation.
	Publisher Publisher

	// Prefetch — неподтверждённых доставок на очередь (default: 5).
	Prefetch int

	Logger *slog.Logger
}

// Store — потребитель очередей *_store.
type Store struct {
	consumers Listener
	ptax      PtaxSink
	cme       CmeSink
	articles  ArticleSink
	publisher Publisher
	prefetch  int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// New создаёт новый Store.
func New(cfg Config) *Store {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Store{
		consumers: cfg.Consumers,
		ptax:      cfg.Ptax,
		cme:       cfg.Cme,
		articles:  cfg.Articles,
		publisher: cfg.Publisher,
		prefetch:  prefetch,
		logger:    telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "store"),
	}
}

// Start подписывает обработчики на очереди *_store.
func (s *Store) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	type subscription struct {
		queue   mq.Queue
		enabled bool
		handler mq.Handler
	}

	subs := []subscription{
		{mq.QueuePtaxStore, s.ptax != nil, s.handlePtax},
		{mq.QueueCmeStore, s.cme != nil, s.handleCme},
		{mq.QueueTheNewsStore, s.articles != nil, s.handleArticle},
	}

	var queues []mq.Queue
	for _, sub := range subs {
		if !sub.enabled {
			continue
		}
		err := s.consumers.Listen(ctx, mq.ListenParams{
			Queue:    sub.queue,
			Handler:  sub.handler,
			Prefetch: s.prefetch,
		})
		if err != nil {
			cancel()
			return fmt.Errorf("register %s consumer: %w", sub.queue, err)
		}
		queues = append(queues, sub.queue)
	}

	s.logger.Info("store started", "queues", queues, "prefetch", s.prefetch)
	return nil
}

// Stop останавливает подписки.
func (s *Store) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.logger.Info("store stopped")
}
