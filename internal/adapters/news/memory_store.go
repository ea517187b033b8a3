package news

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/selivandex/risklattice/pkg/models"
)

// MemoryStore keeps articles in memory; used by dry runs and tests
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]models.NewsItem
	urls  map[string]bool
}

// NewMemoryStore creates empty in-memory news store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string][]models.NewsItem),
		urls:  make(map[string]bool),
	}
}

// SaveItems stores articles not yet seen for (symbol, url)
func (m *MemoryStore) SaveItems(_ context.Context, items []models.NewsItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := 0
	for _, item := range items {
		key := item.Symbol + "|" + item.URL
		if m.urls[key] {
			continue
		}
		m.urls[key] = true
		item.ID = int64(len(m.urls))
		m.items[item.Symbol] = append(m.items[item.Symbol], item)
		saved++
	}

	return saved, nil
}

// ListWindow returns articles published in [from, to], newest first
func (m *MemoryStore) ListWindow(_ context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.NewsItem, 0)
	for _, item := range m.items[symbol] {
		if item.PublishedAt.Before(from) || item.PublishedAt.After(to) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// PublishedBetween returns publication timestamps in [from, to], oldest first
func (m *MemoryStore) PublishedBetween(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
	items, _ := m.ListWindow(ctx, symbol, from, to, 0)

	stamps := make([]time.Time, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		stamps = append(stamps, items[i].PublishedAt)
	}

	return stamps, nil
}
