package forecast

import (
	"context"
	"sync"

	"github.com/selivandex/risklattice/pkg/models"
)

// MemoryStore keeps forecasts in process memory. Used for dry runs and tests.
type MemoryStore struct {
	forecasts map[string][]models.RiskForecast
	nextID    int64
	mu        sync.Mutex
}

// NewMemoryStore creates empty in-memory forecast store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forecasts: make(map[string][]models.RiskForecast)}
}

// Save appends a copy of f
func (m *MemoryStore) Save(_ context.Context, f *models.RiskForecast) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	f.ID = m.nextID

	stored := *f
	stored.Reasons = append([]string(nil), f.Reasons...)
	m.forecasts[f.Symbol] = append(m.forecasts[f.Symbol], stored)
	return nil
}

// Recent returns stored forecasts, newest first
func (m *MemoryStore) Recent(_ context.Context, symbol string, limit int) ([]models.RiskForecast, error) {
	if limit <= 0 {
		return []models.RiskForecast{}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.forecasts[symbol]
	out := make([]models.RiskForecast, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
