package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestRepository_RoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	spike := models.PatternRiskSpike
	saved := models.RiskForecast{
		Symbol:         "AAPL",
		ForecastDate:   at,
		DaysAhead:      7,
		PredictedScore: 100,
		Confidence:     0.7,
		TrendDirection: models.TrendIncreasing,
		Reasons: []string{
			"Risk trend is increasing (momentum: 6.7 points/day)",
			"News volume is increasing (12 articles)",
			"Pattern detected: Risk Spike",
		},
		PatternMatch: &spike,
	}

	mock.ExpectQuery("INSERT INTO risk_forecasts").
		WithArgs("AAPL", at, 7, 100.0, 0.7, "increasing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repo.Save(ctx, &saved))
	assert.Equal(t, int64(7), saved.ID)

	reasons, err := pq.StringArray(saved.Reasons).Value()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"id", "symbol", "forecast_date", "days_ahead", "predicted_score", "confidence",
		"trend_direction", "forecast_reasons", "pattern_match",
	}).AddRow(int64(7), "AAPL", at, 7, 100.0, 0.7, "increasing", reasons, "risk_spike")

	mock.ExpectQuery("SELECT (.+) FROM risk_forecasts").
		WithArgs("AAPL", 5).
		WillReturnRows(rows)

	got, err := repo.Recent(ctx, "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, saved.Reasons, got[0].Reasons)
	require.NotNil(t, got[0].PatternMatch)
	assert.Equal(t, models.PatternRiskSpike, *got[0].PatternMatch)
	assert.Equal(t, saved.PredictedScore, got[0].PredictedScore)
	assert.Equal(t, saved.Confidence, got[0].Confidence)
	assert.Equal(t, saved.TrendDirection, got[0].TrendDirection)
	assert.Equal(t, saved.DaysAhead, got[0].DaysAhead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecentWithoutPattern(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "symbol", "forecast_date", "days_ahead", "predicted_score", "confidence",
		"trend_direction", "forecast_reasons", "pattern_match",
	}).AddRow(int64(1), "AAPL", at, 1, 20.0, 0.6, "stable", "{\"News volume is neutral (0 articles)\"}", nil)

	mock.ExpectQuery("SELECT (.+) FROM risk_forecasts").
		WithArgs("AAPL", 1).
		WillReturnRows(rows)

	got, err := repo.Recent(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].PatternMatch)
	assert.Equal(t, []string{"News volume is neutral (0 articles)"}, got[0].Reasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecent_NonPositiveLimit(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	require.NoError(t, mem.Save(ctx, &models.RiskForecast{Symbol: "AAPL", DaysAhead: 7}))

	for _, limit := range []int{0, -1} {
		got, err := mem.Recent(ctx, "AAPL", limit)
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	// no query reaches the database
	repo, mock := newMockRepo(t)
	got, err := repo.Recent(ctx, "AAPL", -5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
