package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// NodeLocks implements ports.NodeLocker within one process. It serves the
// memory and SQLite backends, which are never shared between hosts.
type NodeLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*nodeLock
}

type nodeLock struct {
	sem  chan struct{}
	refs int
}

// NewNodeLocks creates an empty lock set
func NewNodeLocks() *NodeLocks {
	return &NodeLocks{locks: make(map[uuid.UUID]*nodeLock)}
}

// Lock blocks until id is free or ctx is done.
func (l *NodeLocks) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &nodeLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.unref(id, lock)
		})
	}, nil
}

func (l *NodeLocks) unref(id uuid.UUID, lock *nodeLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

// Held returns the number of nodes with a holder or waiter.
func (l *NodeLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
