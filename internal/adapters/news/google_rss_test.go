package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rssNow = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

type rssEntry struct {
	title, link, source string
	published           time.Time
}

func rssFeed(entries ...rssEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Google News</title>`)
	for _, e := range entries {
		fmt.Fprintf(&b, `<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><source url="https://example.com">%s</source></item>`,
			e.title, e.link, e.published.Format(time.RFC1123), e.source)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newTestGoogle(t *testing.T, feeds map[string]string) (*GoogleNewsProvider, *[]string) {
	t.Helper()

	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Google expects literal '+' separators, which decode to spaces here
		q := strings.ReplaceAll(r.URL.Query().Get("q"), " ", "+")
		queries = append(queries, q)
		assert.Equal(t, "en-US", r.URL.Query().Get("hl"))

		body, ok := feeds[q]
		if !ok {
			body = rssFeed()
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	g := NewGoogleNewsProvider(true, time.Second)
	g.baseURL = srv.URL
	g.now = func() time.Time { return rssNow }

	return g, &queries
}

func TestSearchQueries(t *testing.T) {
	assert.Equal(t,
		[]string{"AAPL+stock", "AAPL+NYSE", "AAPL+NASDAQ", "AAPL"},
		searchQueries("AAPL", false))
	assert.Equal(t,
		[]string{"BTC+crypto", "BTC+cryptocurrency", "BTC-USD+crypto", "BTC+bitcoin", "BTC"},
		searchQueries("BTC-USD", true))
	assert.Equal(t,
		[]string{"ETH+crypto", "ETH+cryptocurrency", "ETH-USD+crypto", "ETH+blockchain", "ETH"},
		searchQueries("ETH-USD", true))
}

func TestGoogleNewsProvider_FiltersAndOrders(t *testing.T) {
	g, queries := newTestGoogle(t, map[string]string{
		"AAPL+stock": rssFeed(
			rssEntry{"Apple stock climbs", "https://n/1", "Reuters", rssNow.Add(-2 * time.Hour)},
			rssEntry{"AAPL beats estimates", "https://n/2", "CNBC", rssNow.Add(-1 * time.Hour)},
			rssEntry{"Weather report for Cupertino", "https://n/3", "Local", rssNow.Add(-3 * time.Hour)},
			rssEntry{"Old aapl market story", "https://n/4", "Reuters", rssNow.Add(-8 * 24 * time.Hour)},
		),
		"AAPL+NYSE": rssFeed(
			rssEntry{"Apple stock climbs", "https://n/1", "Reuters", rssNow.Add(-2 * time.Hour)},
			rssEntry{"Market wrap", "https://n/5", "AP", rssNow.Add(-30 * time.Minute)},
		),
	})

	items, err := g.FetchForSymbol(context.Background(), "AAPL", 20)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "https://n/5", items[0].URL)
	assert.Equal(t, "https://n/2", items[1].URL)
	assert.Equal(t, "https://n/1", items[2].URL)
	assert.Equal(t, "Reuters", items[2].Source)
	assert.Equal(t, "AAPL", items[0].Symbol)

	// fewer than 10 articles so every variant is tried
	assert.Len(t, *queries, 4)
}

func TestGoogleNewsProvider_StopsWhenEnough(t *testing.T) {
	entries := make([]rssEntry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, rssEntry{
			title:     fmt.Sprintf("BTC price update %d", i),
			link:      fmt.Sprintf("https://n/%d", i),
			source:    "CoinDesk",
			published: rssNow.Add(-time.Duration(i) * time.Hour),
		})
	}

	g, queries := newTestGoogle(t, map[string]string{"BTC+crypto": rssFeed(entries...)})

	items, err := g.FetchForSymbol(context.Background(), "BTC-USD", 20)
	require.NoError(t, err)

	assert.Len(t, items, 12)
	assert.Equal(t, []string{"BTC+crypto"}, *queries)
}

func TestGoogleNewsProvider_AllQueriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogleNewsProvider(true, time.Second)
	g.baseURL = srv.URL

	_, err := g.FetchForSymbol(context.Background(), "AAPL", 20)
	assert.Error(t, err)
}

func TestGoogleNewsProvider_Disabled(t *testing.T) {
	g := NewGoogleNewsProvider(false, time.Second)

	items, err := g.FetchForSymbol(context.Background(), "AAPL", 20)
	assert.NoError(t, err)
	assert.Empty(t, items)
}
