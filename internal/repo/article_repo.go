package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Harvester/internal/domain"
)

// ArticleRepo — репозиторий статей The News.
type ArticleRepo struct {
	pool *pgxpool.Pool
}

// NewArticleRepo создаёт новый ArticleRepo.
func NewArticleRepo(pool *pgxpool.Pool) *ArticleRepo {
	return &ArticleRepo{pool: pool}
}

// Insert сохраняет статью. Статья с тем же (date, url) не перезаписывается.
func (r *ArticleRepo) Insert(ctx context.Context, messageID string, a domain.NewsArticle) (int, error) {
	if messageID == "" {
		return 0, ErrMissingMessageID
	}

	query := `
		INSERT INTO news_articles (message_id, date, url, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date, url) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, messageID, a.Date, a.URL, a.Content)
	if err != nil {
		return 0, fmt.Errorf("insert news article: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
