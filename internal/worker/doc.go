// Package worker собирает данные из внешних источников.
//
// # Обзор
//
// Worker подписывается на очереди *_scraper, получает запросы на сбор
// данных и публикует результат в парную очередь *_store:
//
//	ptax_data_scraper     → ptax_data_store
//	cme_data_scraper      → cme_data_store
//	the_news_data_scraper → the_news_article_store
//
// Сбор данных тяжёлый (headless Chrome), поэтому все запросы проходят через
// один serializer.Serializer: в процессе одновременно выполняется не больше
// одного сбора, даже если брокер доставил несколько сообщений.
//
// # Ключевые компоненты
//
// ## Worker
//
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	w := worker.New(worker.Config{
//	    Consumers:  registry,
//	    Publisher:  publisher,
//	    Executors:  worker.NewRegistry(executorCfg),
//	    Serializer: serializer.New(logger),
//	    Logger:     logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Executor
//
// Интерфейс сбора данных одного источника:
//
//	type Executor interface {
//	    Execute(ctx context.Context, req domain.ScrapeRequest) (any, error)
//	}
//
// Реализации:
//   - PtaxExecutor — бюллетень курса доллара PTAX за дату
//   - CmeExecutor — первая заполненная строка котировок CME
//   - TheNewsExecutor — статья архива The News за дату
//
// ## Registry
//
// Реестр executor'ов по источнику. NewRegistry(cfg) регистрирует все три.
//
// # Обработка сообщения
//
//  1. Разбор ScrapeRequest, проверка даты
//  2. Постановка сбора в Serializer под ключом ID сообщения
//  3. Выполнение Executor в браузере из browser.Pool
//  4. Публикация результата в очередь *_store
//
// Ошибка на любом шаге возвращается в mq.Registry и запускает retry
// (до mq.MaxRetries), после чего сообщение отбрасывается.
//
// Если пока сбор ждёт в очереди приходит повтор того же сообщения,
// выполняется только новый (serializer.ErrSuperseded для старого).
package worker
