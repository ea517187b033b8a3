package price

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/selivandex/risklattice/pkg/models"
)

// MemoryStore keeps bars in memory; used by dry runs and tests
type MemoryStore struct {
	mu     sync.RWMutex
	points map[string]map[time.Time]models.PricePoint
}

// NewMemoryStore creates empty in-memory bar store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]map[time.Time]models.PricePoint)}
}

// SaveDaily upserts bars keyed by (symbol, day)
func (m *MemoryStore) SaveDaily(_ context.Context, points []models.PricePoint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range points {
		bySymbol, ok := m.points[p.Symbol]
		if !ok {
			bySymbol = make(map[time.Time]models.PricePoint)
			m.points[p.Symbol] = bySymbol
		}
		p.Date = models.StartOfDay(p.Date)
		bySymbol[p.Date] = p
	}

	return len(points), nil
}

// Window returns bars with from <= date <= to, oldest first
func (m *MemoryStore) Window(_ context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.PricePoint, 0)
	for day, p := range m.points[symbol] {
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out, nil
}

// LastN returns the most recent n bars, oldest first
func (m *MemoryStore) LastN(ctx context.Context, symbol string, n int) ([]models.PricePoint, error) {
	all, _ := m.Window(ctx, symbol, time.Time{}, time.Now().AddDate(100, 0, 0))
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
