package market

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/selivandex/risklattice/pkg/models"
)

// Repository stores per-refresh market metrics and sentiment snapshots
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new market repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveMetrics inserts a metrics snapshot
func (r *Repository) SaveMetrics(ctx context.Context, snap *models.MetricsSnapshot) error {
	query := `
		INSERT INTO metrics_snapshots (symbol, ts, price, return_7d, vol_ann, max_drawdown, rsi14, sma20)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		snap.Symbol,
		snap.Timestamp,
		snap.Price,
		snap.Return7d,
		snap.VolAnn,
		snap.MaxDrawdown,
		snap.RSI14,
		snap.SMA20,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("failed to insert metrics snapshot: %w", err)
	}

	return nil
}

// LatestMetrics returns the most recent metrics snapshot, nil if none
func (r *Repository) LatestMetrics(ctx context.Context, symbol string) (*models.MetricsSnapshot, error) {
	query := `
		SELECT id, symbol, ts, price, return_7d, vol_ann, max_drawdown, rsi14, sma20
		FROM metrics_snapshots
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	var snap models.MetricsSnapshot
	err := r.db.GetContext(ctx, &snap, query, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics snapshot: %w", err)
	}

	return &snap, nil
}

// SaveSentiment inserts a sentiment snapshot; headline impacts go to a JSONB column
func (r *Repository) SaveSentiment(ctx context.Context, snap *models.SentimentSnapshot) error {
	impacts, err := json.Marshal(nonNilImpacts(snap.Impacts))
	if err != nil {
		return fmt.Errorf("failed to marshal headline impacts: %w", err)
	}

	query := `
		INSERT INTO sentiment_snapshots (symbol, ts, sentiment, themes, summary, market_outlook, method, headline_impacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		snap.Symbol,
		snap.Timestamp,
		snap.Sentiment,
		pq.StringArray(snap.Themes),
		snap.Summary,
		string(snap.Outlook),
		snap.Method,
		impacts,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sentiment snapshot: %w", err)
	}

	return nil
}

// LatestSentiment returns the most recent sentiment snapshot, nil if none
func (r *Repository) LatestSentiment(ctx context.Context, symbol string) (*models.SentimentSnapshot, error) {
	query := `
		SELECT id, symbol, ts, sentiment, themes, summary, market_outlook, method, headline_impacts
		FROM sentiment_snapshots
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	var (
		snap    models.SentimentSnapshot
		themes  pq.StringArray
		outlook string
		impacts []byte
	)

	err := r.db.QueryRowContext(ctx, query, symbol).Scan(
		&snap.ID,
		&snap.Symbol,
		&snap.Timestamp,
		&snap.Sentiment,
		&themes,
		&snap.Summary,
		&outlook,
		&snap.Method,
		&impacts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sentiment snapshot: %w", err)
	}

	snap.Themes = []string(themes)
	snap.Outlook = models.MarketOutlook(outlook)
	if len(impacts) > 0 {
		if err := json.Unmarshal(impacts, &snap.Impacts); err != nil {
			return nil, fmt.Errorf("failed to decode headline impacts: %w", err)
		}
	}

	return &snap, nil
}

func nonNilImpacts(impacts []models.HeadlineImpact) []models.HeadlineImpact {
	if impacts == nil {
		return []models.HeadlineImpact{}
	}
	return impacts
}
