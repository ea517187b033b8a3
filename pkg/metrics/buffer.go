package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
	flushTimeout         = 5 * time.Second
)

// BufferedMetrics batches pipeline metrics per table and writes them when a
// table fills a batch or on a timer. Recording never blocks the pipeline:
// when a table holds MaxBufferSize rows the oldest rows are dropped.
type BufferedMetrics struct {
	writer    Writer
	batchSize int
	maxSize   int

	mu      sync.Mutex
	tables  map[string][]Metric
	dropped int

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ Buffer = (*BufferedMetrics)(nil)

// BufferConfig configures metrics buffer
type BufferConfig struct {
	Writer        Writer
	BatchSize     int           // rows per table that trigger a write
	FlushInterval time.Duration // timer flush for partially filled tables
	MaxBufferSize int           // per-table cap kept across failed writes (0 = 10 batches)
}

// NewBufferedMetrics creates new buffered metrics manager
func NewBufferedMetrics(cfg BufferConfig) *BufferedMetrics {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = cfg.BatchSize * 10
	}

	bm := &BufferedMetrics{
		writer:    cfg.Writer,
		batchSize: cfg.BatchSize,
		maxSize:   cfg.MaxBufferSize,
		tables:    make(map[string][]Metric),
		ticker:    time.NewTicker(cfg.FlushInterval),
		stopCh:    make(chan struct{}),
	}

	bm.wg.Add(1)
	go bm.autoFlush()

	logger.Info("metrics buffer initialized",
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("max_per_table", cfg.MaxBufferSize),
		zap.Duration("flush_interval", cfg.FlushInterval),
	)

	return bm
}

// Add queues a metric for its table (thread-safe)
func (bm *BufferedMetrics) Add(metric Metric) error {
	if metric == nil {
		return fmt.Errorf("metric is nil")
	}

	table := metric.TableName()
	if table == "" {
		return fmt.Errorf("metric table name is empty")
	}

	bm.mu.Lock()
	bm.enqueue(table, metric)
	full := len(bm.tables[table]) >= bm.batchSize
	bm.mu.Unlock()

	if full {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if err := bm.flushTable(ctx, table); err != nil {
				logger.Warn("batch flush failed, rows kept for retry",
					zap.String("table", table),
					zap.Error(err),
				)
			}
		}()
	}

	return nil
}

// Flush writes every non-empty table
func (bm *BufferedMetrics) Flush(ctx context.Context) error {
	bm.mu.Lock()
	tables := make([]string, 0, len(bm.tables))
	for table, rows := range bm.tables {
		if len(rows) > 0 {
			tables = append(tables, table)
		}
	}
	bm.mu.Unlock()

	var errs []error
	for _, table := range tables {
		if err := bm.flushTable(ctx, table); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
		}
	}
	return errors.Join(errs...)
}

// Size returns current buffer size across all tables
func (bm *BufferedMetrics) Size() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	total := 0
	for _, rows := range bm.tables {
		total += len(rows)
	}
	return total
}

// Dropped returns how many rows were discarded because a table hit its cap
func (bm *BufferedMetrics) Dropped() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.dropped
}

// Close stops the timer, writes what is left and closes the writer
func (bm *BufferedMetrics) Close(ctx context.Context) error {
	logger.Info("closing metrics buffer...")

	close(bm.stopCh)
	bm.ticker.Stop()
	bm.wg.Wait()

	flushErr := bm.Flush(ctx)
	if flushErr != nil {
		logger.Error("final flush failed",
			zap.Int("rows_lost", bm.Size()),
			zap.Error(flushErr),
		)
	}

	if err := bm.writer.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("close writer: %w", err))
	}
	if flushErr != nil {
		return flushErr
	}

	logger.Info("✅ metrics buffer closed", zap.Int("dropped", bm.Dropped()))
	return nil
}

// flushTable takes the table's rows and writes them; on failure they go back
// in front of anything recorded meanwhile
func (bm *BufferedMetrics) flushTable(ctx context.Context, table string) error {
	bm.mu.Lock()
	rows := bm.tables[table]
	bm.tables[table] = nil
	bm.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	if err := bm.writer.Write(ctx, table, rows); err != nil {
		bm.mu.Lock()
		pending := bm.tables[table]
		bm.tables[table] = nil
		for _, m := range append(rows, pending...) {
			bm.enqueue(table, m)
		}
		bm.mu.Unlock()
		return err
	}

	logger.Debug("metrics flushed",
		zap.String("table", table),
		zap.Int("count", len(rows)),
	)
	return nil
}

// enqueue appends under bm.mu, evicting the oldest row when the table is full
func (bm *BufferedMetrics) enqueue(table string, metric Metric) {
	rows := bm.tables[table]
	if len(rows) >= bm.maxSize {
		rows = rows[1:]
		bm.dropped++
	}
	bm.tables[table] = append(rows, metric)
}

func (bm *BufferedMetrics) autoFlush() {
	defer bm.wg.Done()

	for {
		select {
		case <-bm.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			if err := bm.Flush(ctx); err != nil {
				logger.Warn("periodic flush failed", zap.Error(err))
			}
			cancel()

		case <-bm.stopCh:
			return
		}
	}
}
