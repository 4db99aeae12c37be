package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Harvester/internal/domain"
)

// CmeRepo — репозиторий котировок CME.
type CmeRepo struct {
	pool *pgxpool.Pool
}

// NewCmeRepo создаёт новый CmeRepo.
func NewCmeRepo(pool *pgxpool.Pool) *CmeRepo {
	return &CmeRepo{pool: pool}
}

// InsertQuote сохраняет котировку. Повтор того же сообщения игнорируется.
// Возвращает количество новых строк (0 или 1).
func (r *CmeRepo) InsertQuote(ctx context.Context, messageID string, q domain.CmeQuote) (int, error) {
	if messageID == "" {
		return 0, ErrMissingMessageID
	}

	query := `
		INSERT INTO cme_quotes (message_id, last, change, high, low, volume, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (message_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		messageID,
		q.Last,
		q.Change,
		q.High,
		q.Low,
		q.Volume,
		q.Updated,
	)
	if err != nil {
		return 0, fmt.Errorf("insert cme quote: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
