package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
)

// tableDDL creates the pipeline analytics tables; column order matches Metric.Values
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS refresh_run_metrics (
		ts DateTime64(3, 'UTC'),
		run_id String,
		symbol LowCardinality(String),
		status LowCardinality(String),
		error String,
		price_points Int64,
		news_items Int64,
		total_score Float64,
		duration_ms Int64
	) ENGINE = MergeTree ORDER BY (symbol, ts) TTL toDateTime(ts) + INTERVAL 180 DAY`,
	`CREATE TABLE IF NOT EXISTS backfill_run_metrics (
		ts DateTime64(3, 'UTC'),
		run_id String,
		symbol LowCardinality(String),
		status LowCardinality(String),
		trading_dates Int64,
		created Int64,
		skipped Int64,
		failed Int64,
		duration_ms Int64
	) ENGINE = MergeTree ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS forecast_metrics (
		ts DateTime64(3, 'UTC'),
		symbol LowCardinality(String),
		days_ahead Int64,
		current_score Float64,
		predicted_score Float64,
		confidence Float64,
		trend_direction LowCardinality(String),
		pattern_match LowCardinality(String)
	) ENGINE = MergeTree ORDER BY (symbol, days_ahead, ts)`,
}

// ClickHouseRepository implements Repository for ClickHouse
type ClickHouseRepository struct {
	db *sqlx.DB
}

// NewClickHouseRepository creates new ClickHouse repository
func NewClickHouseRepository(db *sqlx.DB) *ClickHouseRepository {
	return &ClickHouseRepository{db: db}
}

// EnsureTables creates missing metric tables
func (r *ClickHouseRepository) EnsureTables(ctx context.Context) error {
	for _, ddl := range tableDDL {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create ClickHouse table: %w", err)
		}
	}
	return nil
}

// InsertBatch sends rows as one ClickHouse block: the clickhouse-go driver
// buffers prepared-statement execs inside a transaction and ships them on commit
func (r *ClickHouseRepository) InsertBatch(ctx context.Context, tableName string, values [][]interface{}) error {
	if len(values) == 0 {
		return nil
	}

	columnCount := len(values[0])
	if columnCount == 0 {
		return fmt.Errorf("values have no columns")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ClickHouse batch: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", tableName, placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare ClickHouse batch: %w", err)
	}
	defer stmt.Close()

	for i, row := range values {
		if len(row) != columnCount {
			return fmt.Errorf("row %d has wrong column count: expected %d, got %d", i, columnCount, len(row))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to append row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ClickHouse insert failed: %w", err)
	}

	logger.Debug("ClickHouse batch insert successful",
		zap.String("table", tableName),
		zap.Int("rows", len(values)),
	)

	return nil
}

// Close is a no-op; the connection is owned by the caller
func (r *ClickHouseRepository) Close() error {
	return nil
}
