package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/telemetry"
)

// handlePtax сохраняет бюллетень PTAX.
func (s *Store) handlePtax(ctx context.Context, msg mq.Message) error {
	var rates []domain.PtaxRate
	if err := json.Unmarshal(msg.Payload, &rates); err != nil {
		return fmt.Errorf("decode ptax rates: %w", err)
	}

	n, err := s.ptax.InsertRates(ctx, msg.ID, rates)
	if err != nil {
		return err
	}

	telemetry.RowsStored.WithLabelValues("ptax_rates").Add(float64(n))
	s.logger.Info("ptax rates stored", "id", msg.ID, "received", len(rates), "inserted", n)
	return nil
}

// handleCme сохраняет котировку CME.
func (s *Store) handleCme(ctx context.Context, msg mq.Message) error {
	var quote domain.CmeQuote
	if err := json.Unmarshal(msg.Payload, &quote); err != nil {
		return fmt.Errorf("decode cme quote: %w", err)
	}

	n, err := s.cme.InsertQuote(ctx, msg.ID, quote)
	if err != nil {
		return err
	}

	telemetry.RowsStored.WithLabelValues("cme_quotes").Add(float64(n))
	s.logger.Info("cme quote stored", "id", msg.ID, "updated", quote.Updated, "inserted", n)
	return nil
}

// handleArticle сохраняет статью и пересылает её на генерацию.
func (s *Store) handleArticle(ctx context.Context, msg mq.Message) error {
	var article domain.NewsArticle
	if err := json.Unmarshal(msg.Payload, &article); err != nil {
		return fmt.Errorf("decode news article: %w", err)
	}

	n, err := s.articles.Insert(ctx, msg.ID, article)
	if err != nil {
		return err
	}

	telemetry.RowsStored.WithLabelValues("news_articles").Add(float64(n))
	s.logger.Info("news article stored", "id", msg.ID, "date", article.Date, "inserted", n)

	// Дубликат пересылается только в retry: предыдущая попытка могла
	// сохранить статью, но не переслать её
	if s.publisher == nil || (n == 0 && msg.RetryCount == 0) {
		return nil
	}

	if _, err := s.publisher.Publish(ctx, mq.QueueTheNewsArticleGeneration, article); err != nil {
		return fmt.Errorf("forward article to %s: %w", mq.QueueTheNewsArticleGeneration, err)
	}
	return nil
}
