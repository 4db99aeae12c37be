package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Harvester/internal/domain"
)

// PtaxRepo — репозиторий курсов PTAX.
type PtaxRepo struct {
	pool *pgxpool.Pool
}

// NewPtaxRepo создаёт новый PtaxRepo.
func NewPtaxRepo(pool *pgxpool.Pool) *PtaxRepo {
	return &PtaxRepo{pool: pool}
}

// InsertRates сохраняет курсы одним батчем в транзакции.
// Уже сохранённые (date, time, type) пропускаются.
// Возвращает количество новых строк.
func (r *PtaxRepo) InsertRates(ctx context.Context, messageID string, rates []domain.PtaxRate) (int, error) {
	if messageID == "" {
		return 0, ErrMissingMessageID
	}
	if len(rates) == 0 {
		return 0, ErrEmptyBatch
	}

	query := `
		INSERT INTO ptax_rates (message_id, date, time, type, buy_rate, sell_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date, time, type) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rate := range rates {
		batch.Queue(query, messageID, rate.Date, rate.Time, rate.Type, rate.BuyRate, rate.SellRate)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for i := range rates {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("insert ptax rate %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
