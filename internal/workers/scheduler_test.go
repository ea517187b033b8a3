package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/internal/backfill"
	"github.com/selivandex/risklattice/internal/risk"
)

type fakeBackfiller struct {
	calls []string
	errs  map[string]error
}

func (f *fakeBackfiller) Run(_ context.Context, symbol string, days int) (*backfill.Report, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", symbol, days))
	if err := f.errs[symbol]; err != nil {
		return &backfill.Report{Symbol: symbol, Status: backfill.StatusFailed}, err
	}
	return &backfill.Report{Symbol: symbol, Status: backfill.StatusCompleted, Created: 3}, nil
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) CleanupOldNews(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return 2, nil
}

func TestScheduler_RunBackfillContinuesAfterFailures(t *testing.T) {
	bf := &fakeBackfiller{errs: map[string]error{
		"AAPL": errors.New("db down"),
		"MSFT": fmt.Errorf("%w: 3 trading dates", risk.ErrInsufficientData),
	}}
	s := NewScheduler(context.Background(), bf, nil, []string{"AAPL", "MSFT", "BTC-USD"}, 90)

	s.RunBackfill()

	assert.Equal(t, []string{"AAPL:90", "MSFT:90", "BTC-USD:90"}, bf.calls)
}

func TestScheduler_RunBackfillStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bf := &fakeBackfiller{}
	s := NewScheduler(ctx, bf, nil, []string{"AAPL"}, 90)

	s.RunBackfill()

	assert.Empty(t, bf.calls)
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeBackfiller{}, &fakeCleaner{}, nil, 90)

	require.NoError(t, s.Register("15 2 * * *"))
	assert.Len(t, s.cron.Entries(), 2)

	err := NewScheduler(context.Background(), &fakeBackfiller{}, nil, nil, 90).Register("not a cron spec")
	assert.Error(t, err)
}

func TestScheduler_CleanupUsesRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := NewScheduler(context.Background(), &fakeBackfiller{}, cleaner, nil, 90)

	s.cleanupNews()

	assert.Equal(t, newsRetention, cleaner.retention)
}
