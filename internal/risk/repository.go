package risk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/selivandex/risklattice/pkg/models"
)

// Store is the append-only score history of every instrument
type Store interface {
	// Append inserts a point unconditionally
	Append(ctx context.Context, point *models.RiskScorePoint) error
	// AppendIfAbsentOnDay inserts point unless its calendar day (UTC) already
	// holds one for the symbol. Returns false, nil when the day is taken.
	AppendIfAbsentOnDay(ctx context.Context, point *models.RiskScorePoint) (bool, error)
	// InsertBatch inserts points in one transaction, skipping any that already
	// have a neighbour within ±1 day. Returns the number inserted.
	InsertBatch(ctx context.Context, points []models.RiskScorePoint) (int, error)
	// ExistsNear reports whether a point lies within ±1 day of day
	ExistsNear(ctx context.Context, symbol string, day time.Time) (bool, error)
	// PreviousBefore returns the latest point strictly before ts, nil if none
	PreviousBefore(ctx context.Context, symbol string, ts time.Time) (*models.RiskScorePoint, error)
	// Latest returns the most recent point, nil if none
	Latest(ctx context.Context, symbol string) (*models.RiskScorePoint, error)
	// Range returns points with from <= ts <= to, oldest first
	Range(ctx context.Context, symbol string, from, to time.Time) ([]models.RiskScorePoint, error)
	// Count returns the number of stored points for symbol
	Count(ctx context.Context, symbol string) (int, error)
}

// NearWindow returns the exclusive bounds used for the ±1 day duplicate check.
// The previous day's midnight stamp falls outside so consecutive trading days
// are not suppressed by each other.
func NearWindow(day time.Time) (time.Time, time.Time) {
	start := models.StartOfDay(day)
	return start.Add(-24 * time.Hour), models.EndOfDay(day).Add(24 * time.Hour)
}

// Repository handles database operations for risk score history
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new risk repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const scoreColumns = `id, symbol, ts, market_score, news_score, total_score, reasons, trend`

// Append inserts a risk score point
func (r *Repository) Append(ctx context.Context, point *models.RiskScorePoint) error {
	query := `
		INSERT INTO risk_snapshots (symbol, ts, market_score, news_score, total_score, reasons, trend)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		point.Symbol,
		point.Timestamp,
		point.MarketScore,
		point.NewsScore,
		point.TotalScore,
		pq.StringArray(point.Reasons),
		string(point.TrendLabel),
	).Scan(&point.ID)
	if err != nil {
		return fmt.Errorf("failed to insert risk snapshot: %w", err)
	}

	return nil
}

// AppendIfAbsentOnDay inserts point only if its calendar day has no score yet
func (r *Repository) AppendIfAbsentOnDay(ctx context.Context, point *models.RiskScorePoint) (bool, error) {
	query := `
		INSERT INTO risk_snapshots (symbol, ts, market_score, news_score, total_score, reasons, trend)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM risk_snapshots
			WHERE symbol = $1 AND ts >= $8 AND ts <= $9
		)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		point.Symbol,
		point.Timestamp,
		point.MarketScore,
		point.NewsScore,
		point.TotalScore,
		pq.StringArray(point.Reasons),
		string(point.TrendLabel),
		models.StartOfDay(point.Timestamp),
		models.EndOfDay(point.Timestamp),
	).Scan(&point.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert risk snapshot: %w", err)
	}

	return true, nil
}

// InsertBatch inserts points skipping dates that already have a neighbour
func (r *Repository) InsertBatch(ctx context.Context, points []models.RiskScorePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risk_snapshots (symbol, ts, market_score, news_score, total_score, reasons, trend)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM risk_snapshots
			WHERE symbol = $1 AND ts > $8 AND ts < $9
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		lo, hi := NearWindow(p.Timestamp)
		res, err := stmt.ExecContext(ctx,
			p.Symbol,
			p.Timestamp,
			p.MarketScore,
			p.NewsScore,
			p.TotalScore,
			pq.StringArray(p.Reasons),
			string(p.TrendLabel),
			lo,
			hi,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert risk snapshot for %s: %w", p.Timestamp.Format("2006-01-02"), err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return inserted, nil
}

// ExistsNear checks for a point within ±1 day of day
func (r *Repository) ExistsNear(ctx context.Context, symbol string, day time.Time) (bool, error) {
	lo, hi := NearWindow(day)

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM risk_snapshots
			WHERE symbol = $1 AND ts > $2 AND ts < $3
		)
	`, symbol, lo, hi).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing risk snapshot: %w", err)
	}

	return exists, nil
}

// PreviousBefore returns the latest point strictly before ts
func (r *Repository) PreviousBefore(ctx context.Context, symbol string, ts time.Time) (*models.RiskScorePoint, error) {
	query := `SELECT ` + scoreColumns + `
		FROM risk_snapshots
		WHERE symbol = $1 AND ts < $2
		ORDER BY ts DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, symbol, ts)
}

// Latest returns the most recent point
func (r *Repository) Latest(ctx context.Context, symbol string) (*models.RiskScorePoint, error) {
	query := `SELECT ` + scoreColumns + `
		FROM risk_snapshots
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, symbol)
}

// Range returns points in [from, to], oldest first
func (r *Repository) Range(ctx context.Context, symbol string, from, to time.Time) ([]models.RiskScorePoint, error) {
	query := `SELECT ` + scoreColumns + `
		FROM risk_snapshots
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC
	`

	rows, err := r.db.QueryContext(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk snapshots: %w", err)
	}
	defer rows.Close()

	points := make([]models.RiskScorePoint, 0)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk snapshots: %w", err)
	}

	return points, nil
}

// Count returns the total number of stored points for symbol
func (r *Repository) Count(ctx context.Context, symbol string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM risk_snapshots WHERE symbol = $1`, symbol); err != nil {
		return 0, fmt.Errorf("failed to count risk snapshots: %w", err)
	}
	return n, nil
}

func (r *Repository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.RiskScorePoint, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPoint(s scanner) (*models.RiskScorePoint, error) {
	var (
		p       models.RiskScorePoint
		reasons pq.StringArray
		trend   sql.NullString
	)

	err := s.Scan(
		&p.ID,
		&p.Symbol,
		&p.Timestamp,
		&p.MarketScore,
		&p.NewsScore,
		&p.TotalScore,
		&reasons,
		&trend,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan risk snapshot: %w", err)
	}

	p.Reasons = []string(reasons)
	p.TrendLabel = models.TrendLabel(trend.String)

	return &p, nil
}
