package risk

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/selivandex/risklattice/pkg/models"
)

// MemoryStore keeps score history in process memory. Used for dry runs and tests.
type MemoryStore struct {
	points map[string][]models.RiskScorePoint
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryStore creates empty in-memory score store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string][]models.RiskScorePoint)}
}

// Append inserts a point keeping the series ordered by timestamp
func (m *MemoryStore) Append(_ context.Context, point *models.RiskScorePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendLocked(point)
	return nil
}

// AppendIfAbsentOnDay inserts point unless its calendar day already has one
func (m *MemoryStore) AppendIfAbsentOnDay(_ context.Context, point *models.RiskScorePoint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo, hi := models.StartOfDay(point.Timestamp), models.EndOfDay(point.Timestamp)
	for _, p := range m.points[point.Symbol] {
		if !p.Timestamp.Before(lo) && !p.Timestamp.After(hi) {
			return false, nil
		}
	}

	m.appendLocked(point)
	return true, nil
}

// InsertBatch inserts points that have no neighbour within ±1 day
func (m *MemoryStore) InsertBatch(_ context.Context, points []models.RiskScorePoint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for i := range points {
		p := points[i]
		if m.existsNearLocked(p.Symbol, p.Timestamp) {
			continue
		}
		m.appendLocked(&p)
		inserted++
	}

	return inserted, nil
}

// ExistsNear reports whether a point lies within ±1 day of day
func (m *MemoryStore) ExistsNear(_ context.Context, symbol string, day time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.existsNearLocked(symbol, day), nil
}

// PreviousBefore returns the latest point strictly before ts
func (m *MemoryStore) PreviousBefore(_ context.Context, symbol string, ts time.Time) (*models.RiskScorePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series := m.points[symbol]
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Timestamp.Before(ts) {
			p := series[i]
			return &p, nil
		}
	}

	return nil, nil
}

// Latest returns the most recent point
func (m *MemoryStore) Latest(_ context.Context, symbol string) (*models.RiskScorePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series := m.points[symbol]
	if len(series) == 0 {
		return nil, nil
	}

	p := series[len(series)-1]
	return &p, nil
}

// Range returns points in [from, to], oldest first
func (m *MemoryStore) Range(_ context.Context, symbol string, from, to time.Time) ([]models.RiskScorePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RiskScorePoint, 0)
	for _, p := range m.points[symbol] {
		if p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

// Count returns the number of stored points for symbol
func (m *MemoryStore) Count(_ context.Context, symbol string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.points[symbol]), nil
}

func (m *MemoryStore) appendLocked(point *models.RiskScorePoint) {
	m.nextID++
	point.ID = m.nextID

	series := append(m.points[point.Symbol], *point)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
	m.points[point.Symbol] = series
}

func (m *MemoryStore) existsNearLocked(symbol string, day time.Time) bool {
	lo, hi := NearWindow(day)
	for _, p := range m.points[symbol] {
		if p.Timestamp.After(lo) && p.Timestamp.Before(hi) {
			return true
		}
	}
	return false
}
