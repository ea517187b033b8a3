package news

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/risklattice/pkg/models"
)

// Repository handles database operations for news
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new news repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveItems stores articles, ignoring ones already stored for the same (symbol, url).
// Returns the number of new rows.
func (r *Repository) SaveItems(ctx context.Context, items []models.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news_items (symbol, title, url, source, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	now := time.Now().UTC()
	for _, item := range items {
		res, err := stmt.ExecContext(ctx,
			item.Symbol,
			item.Title,
			item.URL,
			item.Source,
			item.PublishedAt,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert news item %q: %w", item.URL, err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return saved, nil
}

// ListWindow returns articles published in [from, to], newest first
func (r *Repository) ListWindow(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error) {
	query := `
		SELECT id, symbol, title, url, source, published_at, created_at
		FROM news_items
		WHERE symbol = $1 AND published_at >= $2 AND published_at <= $3
		ORDER BY published_at DESC
		LIMIT $4
	`

	var items []models.NewsItem
	if err := r.db.SelectContext(ctx, &items, query, symbol, from, to, limit); err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}

	return items, nil
}

// PublishedBetween returns publication timestamps in [from, to], oldest first
func (r *Repository) PublishedBetween(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT published_at
		FROM news_items
		WHERE symbol = $1 AND published_at >= $2 AND published_at <= $3
		ORDER BY published_at ASC
	`

	var stamps []time.Time
	if err := r.db.SelectContext(ctx, &stamps, query, symbol, from, to); err != nil {
		return nil, fmt.Errorf("failed to query news timestamps: %w", err)
	}

	return stamps, nil
}

// CleanupOldNews removes articles published before now - olderThan
func (r *Repository) CleanupOldNews(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.db.ExecContext(ctx, `DELETE FROM news_items WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old news: %w", err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}
