package redis

import (
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
)

// RedisLockFactory creates Redlock-based per-symbol locks
type RedisLockFactory struct {
	lockManager *redlock.RedLock
	ttl         time.Duration
}

// NewRedisLockFactory creates new Redis lock factory
func NewRedisLockFactory(lockManager *redlock.RedLock, ttl time.Duration) *RedisLockFactory {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLockFactory{
		lockManager: lockManager,
		ttl:         ttl,
	}
}

// ForSymbol creates a distributed refresh lock for symbol
func (f *RedisLockFactory) ForSymbol(symbol string) SymbolLock {
	return NewDistributedLock(f.lockManager, symbol, f.ttl)
}
