package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/serializer"
	"github.com/shaiso/Harvester/internal/telemetry"
)

// handleScrape возвращает обработчик очереди *_scraper источника.
func (w *Worker) handleScrape(source domain.Source, route mq.Route, executor Executor) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		if w.IsStopped() {
			return ErrWorkerStopped
		}

		req, err := domain.DecodeScrapeRequest(msg.Payload)
		if err != nil {
			return err
		}
		if err := req.Validate(source); err != nil {
			return err
		}

		w.logger.Info("posting message to serializer",
			"id", msg.ID,
			"source", source,
			"from_date", req.FromDate,
			"pending", w.serializer.Len(),
		)

		done := w.serializer.Add(taskKey(source, msg.ID), func() error {
			return w.scrape(ctx, source, route, executor, msg.ID, req)
		})

		select {
		case err := <-done:
			if errors.Is(err, serializer.ErrSuperseded) {
				// Сбор выполнит более новая доставка того же сообщения
				w.logger.Info("scrape superseded by redelivery", "id", msg.ID, "source", source)
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// scrape выполняет сбор и публикует результат в очередь *_store.
func (w *Worker) scrape(ctx context.Context, source domain.Source, route mq.Route, executor Executor, id string, req domain.ScrapeRequest) error {
	logger := telemetry.WithSource(w.logger, string(source))
	logger.Info("scraping data", "id", id, "from_date", req.FromDate)

	start := time.Now()
	result, err := executor.Execute(ctx, req)
	telemetry.ScrapeDuration.WithLabelValues(string(source), telemetry.Outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("data scrap failed", "id", id, "from_date", req.FromDate, "error", err)
		return err
	}

	resultID, err := w.publisher.Publish(ctx, route.Store, result)
	if err != nil {
		return fmt.Errorf("forward %s result to %s: %w", source, route.Store, err)
	}

	logger.Info("scrape finished successfully",
		"id", id,
		"result_id", resultID,
		"queue", route.Store,
		"duration", time.Since(start),
	)
	return nil
}

// taskKey — ключ задачи в Serializer. Повторная доставка заменяет только
// ожидающий сбор того же источника.
func taskKey(source domain.Source, id string) string {
	return string(source) + ":" + id
}
