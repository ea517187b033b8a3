package redis

import (
	"context"
	"sync"
)

// SymbolLock guards one symbol's refresh against concurrent runs
type SymbolLock interface {
	// TryAcquire attempts to acquire the lock
	// Returns true if lock was acquired, false if already held elsewhere
	TryAcquire(ctx context.Context) (bool, error)

	// Release releases the lock
	Release(ctx context.Context) error

	// Symbol returns the symbol this lock is for
	Symbol() string
}

// LockFactory creates per-symbol refresh locks
type LockFactory interface {
	ForSymbol(symbol string) SymbolLock
}

// LocalLockFactory serializes refreshes inside one process; used when Redis is disabled
type LocalLockFactory struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLockFactory creates in-process lock factory
func NewLocalLockFactory() *LocalLockFactory {
	return &LocalLockFactory{held: make(map[string]bool)}
}

// ForSymbol creates a lock sharing state with every other lock of this factory
func (f *LocalLockFactory) ForSymbol(symbol string) SymbolLock {
	return &localLock{factory: f, symbol: symbol}
}

type localLock struct {
	factory *LocalLockFactory
	symbol  string
	locked  bool
}

func (l *localLock) TryAcquire(context.Context) (bool, error) {
	l.factory.mu.Lock()
	defer l.factory.mu.Unlock()

	if l.factory.held[l.symbol] {
		return false, nil
	}
	l.factory.held[l.symbol] = true
	l.locked = true
	return true, nil
}

func (l *localLock) Release(context.Context) error {
	l.factory.mu.Lock()
	defer l.factory.mu.Unlock()

	if l.locked {
		delete(l.factory.held, l.symbol)
		l.locked = false
	}
	return nil
}

func (l *localLock) Symbol() string {
	return l.symbol
}
