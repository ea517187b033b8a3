package price

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/risklattice/pkg/models"
)

// Repository handles daily price bar database operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new price repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveDaily upserts bars on (symbol, date); a re-fetched day overwrites the stored bar
func (r *Repository) SaveDaily(ctx context.Context, points []models.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_points (symbol, date, source, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date)
		DO UPDATE SET
			source = EXCLUDED.source,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx,
			p.Symbol,
			models.StartOfDay(p.Date),
			p.Source,
			p.Open,
			p.High,
			p.Low,
			p.Close,
			p.Volume,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert price point %s %s: %w", p.Symbol, p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(points), nil
}

// Window returns bars with from <= date <= to, oldest first
func (r *Repository) Window(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	query := `
		SELECT symbol, date, source, open, high, low, close, volume
		FROM price_points
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	var points []models.PricePoint
	if err := r.db.SelectContext(ctx, &points, query, symbol, from, to); err != nil {
		return nil, fmt.Errorf("failed to query price points: %w", err)
	}

	return points, nil
}

// LastN returns the most recent n bars, oldest first
func (r *Repository) LastN(ctx context.Context, symbol string, n int) ([]models.PricePoint, error) {
	query := `
		SELECT symbol, date, source, open, high, low, close, volume
		FROM (
			SELECT symbol, date, source, open, high, low, close, volume
			FROM price_points
			WHERE symbol = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`

	var points []models.PricePoint
	if err := r.db.SelectContext(ctx, &points, query, symbol, n); err != nil {
		return nil, fmt.Errorf("failed to query latest price points: %w", err)
	}

	return points, nil
}
