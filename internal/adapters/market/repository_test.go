package market

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
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

func TestRepository_SaveMetrics(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rsi := 61.5

	mock.ExpectQuery("INSERT INTO metrics_snapshots").
		WithArgs("AAPL", ts, 190.0, 2.5, 22.0, -8.0, &rsi, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	snap := &models.MetricsSnapshot{
		Timestamp: ts,
		Symbol:    "AAPL",
		MarketMetrics: models.MarketMetrics{
			Price:       190,
			Return7d:    2.5,
			VolAnn:      22,
			MaxDrawdown: -8,
		},
		RSI14: &rsi,
	}

	require.NoError(t, repo.SaveMetrics(context.Background(), snap))
	assert.Equal(t, int64(7), snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LatestMetrics_None(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, symbol, ts, price").
		WithArgs("AAPL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "symbol", "ts", "price", "return_7d", "vol_ann", "max_drawdown", "rsi14", "sma20"}))

	snap, err := repo.LatestMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRepository_SentimentRoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO sentiment_snapshots").
		WithArgs("AAPL", ts, -0.4, sqlmock.AnyArg(), "Negative news flow.", "NEGATIVE", "lexicon",
			[]byte(`[{"title":"Apple faces lawsuit","reason":"risk keyword","impact":-2}]`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	snap := &models.SentimentSnapshot{
		Timestamp: ts,
		Symbol:    "AAPL",
		Outlook:   models.OutlookNegative,
		Summary:   "Negative news flow.",
		Method:    "lexicon",
		Themes:    []string{"lawsuit"},
		Impacts:   []models.HeadlineImpact{{Title: "Apple faces lawsuit", Reason: "risk keyword", Impact: -2}},
		Sentiment: -0.4,
	}
	require.NoError(t, repo.SaveSentiment(context.Background(), snap))
	assert.Equal(t, int64(3), snap.ID)

	mock.ExpectQuery("SELECT id, symbol, ts, sentiment").
		WithArgs("AAPL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "symbol", "ts", "sentiment", "themes", "summary", "market_outlook", "method", "headline_impacts"}).
			AddRow(3, "AAPL", ts, -0.4, "{lawsuit}", "Negative news flow.", "NEGATIVE", "lexicon",
				[]byte(`[{"title":"Apple faces lawsuit","reason":"risk keyword","impact":-2}]`)))

	got, err := repo.LatestSentiment(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"lawsuit"}, got.Themes)
	assert.Equal(t, models.OutlookNegative, got.Outlook)
	assert.Equal(t, snap.Impacts, got.Impacts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
