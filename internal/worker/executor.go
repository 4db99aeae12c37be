package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Harvester/internal/browser"
	"github.com/shaiso/Harvester/internal/domain"
)

// Executor — сбор данных одного источника.
//
// Результат публикуется в очередь *_store как JSON.
type Executor interface {
	Execute(ctx context.Context, req domain.ScrapeRequest) (any, error)
}

// Browser выполняет действие в новой вкладке браузера.
// Реализуется browser.Pool.
type Browser interface {
	Do(ctx context.Context, fn browser.TabFunc) error
}

// ExecutorConfig — зависимости executor'ов.
type ExecutorConfig struct {
	Browser Browser

	PtaxBaseURL    string
	CmeBaseURL     string
	TheNewsBaseURL string
}

// Registry — реестр executor'ов по источнику.
type Registry struct {
	executors map[domain.Source]Executor
}

// NewRegistry создаёт реестр с executor'ами ptax, cme, the_news.
func NewRegistry(cfg ExecutorConfig) *Registry {
	r := &Registry{executors: make(map[domain.Source]Executor)}
	r.Register(domain.SourcePtax, &PtaxExecutor{Browser: cfg.Browser, BaseURL: cfg.PtaxBaseURL})
	r.Register(domain.SourceCme, &CmeExecutor{Browser: cfg.Browser, BaseURL: cfg.CmeBaseURL})
	r.Register(domain.SourceTheNews, &TheNewsExecutor{Browser: cfg.Browser, BaseURL: cfg.TheNewsBaseURL})
	return r
}

// Register добавляет executor для источника.
func (r *Registry) Register(source domain.Source, executor Executor) {
	r.executors[source] = executor
}

// Get возвращает executor для источника.
func (r *Registry) Get(source domain.Source) (Executor, error) {
	executor, ok := r.executors[source]
	if !ok {
		return nil, fmt.Errorf("%w: no executor for %s", domain.ErrUnknownSource, source)
	}
	return executor, nil
}
