// Package lock provides per-user locking for concurrent balance operations.
// The record store offers no transactional isolation, so every mutating
// path for a given user is funneled through that user's mutex to rule
// out lost updates from double-submission.
package lock

import (
	"sync"
)

// userMutex wraps a mutex so instances can be pooled.
type userMutex struct {
	mu sync.Mutex
}

// UserLock provides per-user locking keyed by the platform's string
// external ID.
type UserLock struct {
	locks sync.Map // map[string]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given user ID.
func (ul *UserLock) getLock(userID string) *userMutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	newLock := ul.pool.Get().(*userMutex)

	// Store or load existing (handles race condition)
	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// Lock acquires the lock for a user.
// This must be called before any balance-modifying operation.
func (ul *UserLock) Lock(userID string) {
	ul.getLock(userID).mu.Lock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID string) {
	if v, ok := ul.locks.Load(userID); ok {
		v.(*userMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired.
func (ul *UserLock) TryLock(userID string) bool {
	return ul.getLock(userID).mu.TryLock()
}

// WithLock executes a function while holding the user's lock.
func (ul *UserLock) WithLock(userID string, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}
