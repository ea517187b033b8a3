package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/risk"
	"github.com/selivandex/risklattice/pkg/logger"
)

// newsRetention is how long stored articles are kept by the nightly cleanup
const newsRetention = 30 * 24 * time.Hour

// NewsCleaner drops articles older than a retention period
type NewsCleaner interface {
	CleanupOldNews(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler runs the nightly backfill and housekeeping jobs
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	backfill Backfiller
	cleaner  NewsCleaner
	symbols  []string
	days     int
}

// NewScheduler creates new scheduler. cleaner may be nil.
func NewScheduler(ctx context.Context, backfill Backfiller, cleaner NewsCleaner, symbols []string, days int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		backfill: backfill,
		cleaner:  cleaner,
		symbols:  symbols,
		days:     days,
	}
}

// Register adds the backfill job at spec (standard 5-field cron, UTC).
// News cleanup runs once a day when a cleaner is set.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunBackfill); err != nil {
		return fmt.Errorf("register backfill job: %w", err)
	}

	if s.cleaner != nil {
		if _, err := s.cron.AddFunc("@every 24h", s.cleanupNews); err != nil {
			return fmt.Errorf("register news cleanup job: %w", err)
		}
	}

	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started",
		zap.Int("jobs", len(s.cron.Entries())),
	)
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
}

// RunBackfill backfills every symbol once. Symbols are independent: one
// failing does not stop the others.
func (s *Scheduler) RunBackfill() {
	logger.Info("running scheduled backfill",
		zap.Int("symbols", len(s.symbols)),
		zap.Int("days", s.days),
	)

	for _, symbol := range s.symbols {
		if s.ctx.Err() != nil {
			return
		}

		report, err := s.backfill.Run(s.ctx, symbol, s.days)
		switch {
		case errors.Is(err, risk.ErrInsufficientData):
			logger.Info("backfill skipped, not enough history",
				zap.String("symbol", symbol),
			)
		case err != nil:
			logger.Error("scheduled backfill failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		default:
			logger.Info("scheduled backfill done",
				zap.String("symbol", symbol),
				zap.Int("created", report.Created),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
		}
	}
}

func (s *Scheduler) cleanupNews() {
	removed, err := s.cleaner.CleanupOldNews(s.ctx, newsRetention)
	if err != nil {
		logger.Error("failed to cleanup news", zap.Error(err))
		return
	}

	logger.Info("old news cleanup completed", zap.Int64("removed", removed))
}
