package cron

import (
	"context"
	"sync"
)

// Lock coordinates exclusive scheduler runs. The engine is embedded in a
// single process per database file, so an in-process mutex is sufficient; the
// interface leaves room for a shared lock if multiple processes ever open
// the same file.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// MutexLock implements Lock with a non-blocking in-process mutex.
type MutexLock struct {
	mu sync.Mutex
}

// NewMutexLock constructs an in-process lock.
func NewMutexLock() *MutexLock {
	return &MutexLock{}
}

// Acquire reports whether the lock was free and is now held.
func (l *MutexLock) Acquire(ctx context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release frees the lock.
func (l *MutexLock) Release(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}
