package metrics

import "context"

// Metric is a generic interface for any metric record
type Metric interface {
	// TableName returns ClickHouse table name for this metric
	TableName() string
	// Values returns metric values in the same order as columns
	Values() []interface{}
}

// Writer writes metrics to storage (ClickHouse, Postgres, etc.)
type Writer interface {
	// Write writes batch of metrics to storage
	Write(ctx context.Context, tableName string, metrics []Metric) error
	// Close closes writer and flushes any remaining data
	Close() error
}

// Recorder accepts metrics from pipeline components
type Recorder interface {
	Add(metric Metric) error
}

// Buffer manages batching and auto-flushing of metrics
type Buffer interface {
	Recorder
	// Flush flushes buffer to writer
	Flush(ctx context.Context) error
	// Size returns current buffer size
	Size() int
	// Close flushes and closes buffer
	Close(ctx context.Context) error
}

// Nop discards every metric. Used when ClickHouse is disabled.
type Nop struct{}

// Add drops the metric
func (Nop) Add(Metric) error { return nil }
