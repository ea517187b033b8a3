package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
)

type stubProvider struct {
	name    string
	enabled bool
	items   []models.NewsItem
	err     error
}

func (s *stubProvider) GetName() string { return s.name }
func (s *stubProvider) IsEnabled() bool { return s.enabled }

func (s *stubProvider) FetchForSymbol(context.Context, string, int) ([]models.NewsItem, error) {
	return s.items, s.err
}

func TestAggregator_FetchForSymbol(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	google := &stubProvider{name: "google_news", enabled: true, items: []models.NewsItem{
		{Title: "a", URL: "https://x/a", PublishedAt: base},
		{Title: "b", URL: "https://x/b", PublishedAt: base.Add(2 * time.Hour)},
	}}
	coindesk := &stubProvider{name: "coindesk", enabled: true, items: []models.NewsItem{
		{Title: "b again", URL: "https://x/b", PublishedAt: base.Add(2 * time.Hour)},
		{Title: "c", URL: "https://x/c", PublishedAt: base.Add(time.Hour)},
	}}
	broken := &stubProvider{name: "broken", enabled: true, err: errors.New("boom")}
	disabled := &stubProvider{name: "off", items: []models.NewsItem{{URL: "https://x/z"}}}

	agg := NewAggregator([]Provider{google, coindesk, broken, disabled}, 20)
	items := agg.FetchForSymbol(context.Background(), "BTC-USD")

	require.Len(t, items, 3)
	assert.Equal(t, "https://x/b", items[0].URL)
	assert.Equal(t, "https://x/c", items[1].URL)
	assert.Equal(t, "https://x/a", items[2].URL)
	for _, item := range items {
		assert.Equal(t, "BTC-USD", item.Symbol)
	}
}

func TestAggregator_Cap(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p := &stubProvider{name: "p", enabled: true, items: []models.NewsItem{
		{URL: "1", PublishedAt: base},
		{URL: "2", PublishedAt: base.Add(time.Hour)},
		{URL: "3", PublishedAt: base.Add(2 * time.Hour)},
	}}

	items := NewAggregator([]Provider{p}, 2).FetchForSymbol(context.Background(), "AAPL")

	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].URL)
}

func TestCoinDeskProvider_FetchForSymbol(t *testing.T) {
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"_id": "1", "type": "story", "canonical_url": "/markets/btc-rallies", "headlines": {"basic": "Bitcoin rallies past resistance"}, "description": {"basic": ""}, "display_date": "2025-03-12T08:00:00Z"},
			{"_id": "2", "type": "video", "canonical_url": "/video/btc", "headlines": {"basic": "BTC video"}, "description": {"basic": ""}, "display_date": "2025-03-12T09:00:00Z"},
			{"_id": "3", "type": "story", "canonical_url": "/markets/sol", "headlines": {"basic": "Solana upgrade ships"}, "description": {"basic": "validators"}, "display_date": "2025-03-12T10:00:00Z"},
			{"_id": "4", "type": "story", "canonical_url": "/markets/old", "headlines": {"basic": "Bitcoin in 2024"}, "description": {"basic": ""}, "display_date": "2025-03-01T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := NewCoinDeskProvider(true, time.Second)
	c.feedURL = srv.URL + "/?size=%d"
	c.now = func() time.Time { return now }

	items, err := c.FetchForSymbol(context.Background(), "BTC-USD", 10)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "https://www.coindesk.com/markets/btc-rallies", items[0].URL)
	assert.Equal(t, "CoinDesk", items[0].Source)

	equity, err := c.FetchForSymbol(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, equity)
}

func TestRepository_SaveItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "postgres"))
	published := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO news_items")
	prep.ExpectExec().
		WithArgs("AAPL", "first", "https://x/1", "Reuters", published, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("AAPL", "dup", "https://x/2", "Reuters", published, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := repo.SaveItems(context.Background(), []models.NewsItem{
		{Symbol: "AAPL", Title: "first", URL: "https://x/1", Source: "Reuters", PublishedAt: published},
		{Symbol: "AAPL", Title: "dup", URL: "https://x/2", Source: "Reuters", PublishedAt: published},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PublishedBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "postgres"))
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery("SELECT published_at").
		WithArgs("AAPL", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"published_at"}).
			AddRow(from.Add(time.Hour)).
			AddRow(from.Add(26 * time.Hour)))

	stamps, err := repo.PublishedBetween(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{from.Add(time.Hour), from.Add(26 * time.Hour)}, stamps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	n, _ := store.SaveItems(ctx, []models.NewsItem{
		{Symbol: "AAPL", URL: "1", PublishedAt: base},
		{Symbol: "AAPL", URL: "2", PublishedAt: base.Add(48 * time.Hour)},
		{Symbol: "AAPL", URL: "1", PublishedAt: base},
		{Symbol: "MSFT", URL: "1", PublishedAt: base},
	})
	assert.Equal(t, 3, n)

	items, _ := store.ListWindow(ctx, "AAPL", base, base.AddDate(0, 0, 5), 10)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].URL)

	stamps, _ := store.PublishedBetween(ctx, "AAPL", base, base.AddDate(0, 0, 5))
	assert.Equal(t, []time.Time{base, base.Add(48 * time.Hour)}, stamps)
}
