package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
)

// DistributedLock wraps redlock-go so only one replica refreshes a symbol at a time
type DistributedLock struct {
	lockManager *redlock.RedLock
	symbol      string
	lockName    string
	ttl         time.Duration

	mu     sync.Mutex
	locked bool
	stop   chan struct{}
}

// NewDistributedLock creates new refresh lock for symbol
func NewDistributedLock(lockManager *redlock.RedLock, symbol string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		lockManager: lockManager,
		symbol:      symbol,
		lockName:    fmt.Sprintf("refresh:lock:%s", symbol),
		ttl:         ttl,
	}
}

// TryAcquire attempts to acquire the lock using the Redlock algorithm.
// Returns false without error when another replica holds it.
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		logger.Debug("refresh lock already held",
			zap.String("symbol", dl.symbol),
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.mu.Lock()
	dl.locked = true
	dl.stop = make(chan struct{})
	stop := dl.stop
	dl.mu.Unlock()

	logger.Debug("refresh lock acquired",
		zap.String("symbol", dl.symbol),
		zap.Duration("ttl", dl.ttl),
		zap.Duration("expiry", expiry),
	)

	go dl.renewLock(ctx, stop)

	return true, nil
}

// Release releases the lock; an already expired lock is not an error
func (dl *DistributedLock) Release(ctx context.Context) error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if !dl.locked {
		return nil
	}

	close(dl.stop)
	dl.locked = false

	if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
		logger.Warn("failed to release refresh lock (may have already expired)",
			zap.String("symbol", dl.symbol),
			zap.Error(err),
		)
	}

	return nil
}

func (dl *DistributedLock) Symbol() string {
	return dl.symbol
}

// renewLock re-acquires the lock at 2/3 of its TTL while a refresh runs.
// Redlock-go has no extend call, so renewal is unlock + lock.
func (dl *DistributedLock) renewLock(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker((dl.ttl * 2) / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			dl.mu.Lock()
			if !dl.locked {
				dl.mu.Unlock()
				return
			}

			_ = dl.lockManager.UnLock(ctx, dl.lockName)
			expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
			if err != nil || expiry <= 0 {
				logger.Error("refresh lock lost, another replica may take over",
					zap.String("symbol", dl.symbol),
					zap.Error(err),
				)
				dl.locked = false
				close(dl.stop)
				dl.mu.Unlock()
				return
			}
			dl.mu.Unlock()
		}
	}
}
