package reminder

import (
	"context"
	"sync"
)

// Locker serializes reconciliation for one user. The returned unlock func
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, userID uint64) (unlock func(), err error)
}

type userLock struct {
	sem  chan struct{}
	refs int
}

// localLocker only covers reconciles running in this process.
type localLocker struct {
	mu    sync.Mutex
	locks map[uint64]*userLock
}

func newLocalLocker() *localLocker {
	return &localLocker{locks: make(map[uint64]*userLock)}
}

func (l *localLocker) Lock(ctx context.Context, userID uint64) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.sem <- struct{}{}:
		return func() {
			<-ul.sem
			l.release(userID, ul)
		}, nil
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}
}

func (l *localLocker) release(userID uint64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}
