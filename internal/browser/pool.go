package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/shaiso/Harvester/internal/telemetry"
)

const (
	defaultSize    = 1
	defaultTimeout = 60 * time.Second

	// DefaultUserAgent — user agent десктопного Chrome.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
)

// TabFunc — действие во вкладке браузера.
type TabFunc func(tab context.Context) error

// PoolConfig — конфигурация пула.
type PoolConfig struct {
	// Size — количество браузеров (default: 1).
	Size int

	// RemoteURL — адрес DevTools удалённого браузера (ws://...).
	// Если пуст, браузер запускается локально.
	RemoteURL string

	// Headless — запуск локального браузера без окна.
	Headless bool

	// UserAgent (default: DefaultUserAgent). Локальному браузеру задаётся
	// флагом запуска, удалённому — в каждой вкладке.
	UserAgent string

	// Timeout — ограничение на один запрос (default: 60s).
	Timeout time.Duration

	Logger *slog.Logger
}

// launchFunc запускает браузер и возвращает его контекст.
type launchFunc func(ctx context.Context) (context.Context, context.CancelFunc, error)

// tabFunc открывает новую вкладку в браузере.
type tabFunc func(browser context.Context) (context.Context, context.CancelFunc, error)

type request struct {
	ctx    context.Context
	fn     TabFunc
	result chan error
}

// Pool — пул браузеров.
type Pool struct {
	requests chan request
	timeout  time.Duration
	logger   *slog.Logger

	launch  launchFunc
	openTab tabFunc

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool запускает Size браузеров.
// Если хотя бы один не запустился, уже запущенные закрываются.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	openTab := openChromedpTab
	if cfg.RemoteURL != "" {
		openTab = openRemoteTab(userAgentOrDefault(cfg.UserAgent))
	}
	return newPool(ctx, cfg, chromedpLauncher(cfg), openTab)
}

func newPool(ctx context.Context, cfg PoolConfig, launch launchFunc, openTab tabFunc) (*Pool, error) {
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		requests: make(chan request),
		timeout:  timeout,
		logger:   telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "browser.pool"),
		launch:   launch,
		openTab:  openTab,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		browserCtx, stop, err := p.launch(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("%w: browser %d: %w", ErrLaunch, i, err)
		}

		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			defer stop()
			p.serve(browserCtx, id)
		}(i)
	}

	p.logger.Info("browser pool started",
		"size", size,
		"remote", cfg.RemoteURL != "",
		"timeout", timeout,
	)
	return p, nil
}

// serve обслуживает запросы одним браузером.
func (p *Pool) serve(browserCtx context.Context, id int) {
	for {
		select {
		case <-p.done:
			return
		case <-browserCtx.Done():
			select {
			case <-p.done:
			default:
				p.logger.Error("browser exited", "browser", id, "error", context.Cause(browserCtx))
			}
			return
		case req := <-p.requests:
			req.result <- p.run(browserCtx, req)
		}
	}
}

// run выполняет запрос в новой вкладке.
func (p *Pool) run(browserCtx context.Context, req request) (err error) {
	tab, closeTab, err := p.openTab(browserCtx)
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	defer closeTab()

	tab, cancel := context.WithTimeout(tab, p.timeout)
	defer cancel()

	// Отмена запроса вызывающим закрывает вкладку
	stop := context.AfterFunc(req.ctx, cancel)
	defer stop()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("browser task panic: %v", rec)
		}
	}()

	return req.fn(tab)
}

// Do выполняет fn в новой вкладке свободного браузера.
// Блокируется, пока свободного браузера нет.
func (p *Pool) Do(ctx context.Context, fn TabFunc) error {
	req := request{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.requests <- req:
	}

	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close останавливает браузеры и ждёт завершения горутин.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.cancel()
		p.wg.Wait()
		p.logger.Info("browser pool stopped")
	})
}

// chromedpLauncher возвращает launchFunc для локального или удалённого браузера.
func chromedpLauncher(cfg PoolConfig) launchFunc {
	userAgent := userAgentOrDefault(cfg.UserAgent)

	return func(ctx context.Context) (context.Context, context.CancelFunc, error) {
		var (
			allocCtx    context.Context
			cancelAlloc context.CancelFunc
		)

		if cfg.RemoteURL != "" {
			allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		} else {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", cfg.Headless),
				chromedp.Flag("disable-http2", true),
				chromedp.NoSandbox,
				chromedp.UserAgent(userAgent),
			)
			allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
		}

		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

		// Пустой Run запускает браузер
		if err := chromedp.Run(browserCtx); err != nil {
			cancelBrowser()
			cancelAlloc()
			return nil, nil, err
		}

		return browserCtx, func() {
			cancelBrowser()
			cancelAlloc()
		}, nil
	}
}

func openChromedpTab(browser context.Context) (context.Context, context.CancelFunc, error) {
	tab, cancel := chromedp.NewContext(browser)
	return tab, cancel, nil
}

// openRemoteTab открывает вкладку и задаёт ей user agent: флаги запуска
// удалённого браузера недоступны.
func openRemoteTab(userAgent string) tabFunc {
	return func(browser context.Context) (context.Context, context.CancelFunc, error) {
		tab, cancel := chromedp.NewContext(browser)
		if err := chromedp.Run(tab, emulation.SetUserAgentOverride(userAgent)); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("set user agent: %w", err)
		}
		return tab, cancel, nil
	}
}

func userAgentOrDefault(userAgent string) string {
	if userAgent == "" {
		return DefaultUserAgent
	}
	return userAgent
}
