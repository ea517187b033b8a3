package forecast

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/selivandex/risklattice/pkg/models"
)

// Store is the append-only forecast history
type Store interface {
	Save(ctx context.Context, f *models.RiskForecast) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.RiskForecast, error)
}

// Repository handles database operations for forecasts
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new forecast repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a forecast record
func (r *Repository) Save(ctx context.Context, f *models.RiskForecast) error {
	query := `
		INSERT INTO risk_forecasts (
			symbol, forecast_date, days_ahead, predicted_score, confidence,
			trend_direction, forecast_reasons, pattern_match
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var pattern sql.NullString
	if f.PatternMatch != nil {
		pattern = sql.NullString{String: string(*f.PatternMatch), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		f.Symbol,
		f.ForecastDate,
		f.DaysAhead,
		f.PredictedScore,
		f.Confidence,
		string(f.TrendDirection),
		pq.StringArray(f.Reasons),
		pattern,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}

	return nil
}

// Recent returns the newest forecasts for symbol, newest first.
// A non-positive limit returns nothing.
func (r *Repository) Recent(ctx context.Context, symbol string, limit int) ([]models.RiskForecast, error) {
	if limit <= 0 {
		return []models.RiskForecast{}, nil
	}

	query := `
		SELECT id, symbol, forecast_date, days_ahead, predicted_score, confidence,
			trend_direction, forecast_reasons, pattern_match
		FROM risk_forecasts
		WHERE symbol = $1
		ORDER BY forecast_date DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := make([]models.RiskForecast, 0)
	for rows.Next() {
		var (
			f         models.RiskForecast
			direction string
			reasons   pq.StringArray
			pattern   sql.NullString
		)

		if err := rows.Scan(
			&f.ID,
			&f.Symbol,
			&f.ForecastDate,
			&f.DaysAhead,
			&f.PredictedScore,
			&f.Confidence,
			&direction,
			&reasons,
			&pattern,
		); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}

		f.TrendDirection = models.TrendDirection(direction)
		f.Reasons = []string(reasons)
		if pattern.Valid {
			p := models.Pattern(pattern.String)
			f.PatternMatch = &p
		}

		forecasts = append(forecasts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}

	return forecasts, nil
}
