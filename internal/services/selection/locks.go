package selection

import (
	"context"
	"sync"

	"github.com/mcoot/sortinghat/internal/model"
)

// ownerLocks serialises work per owner across pickers. Entries are dropped
// once nobody holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[model.OwnerKey]*ownerLock
}

type ownerLock struct {
	sem  chan struct{}
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[model.OwnerKey]*ownerLock)}
}

// lock blocks until the owner's lock is free or ctx is done. The returned
// func releases it.
func (l *ownerLocks) lock(ctx context.Context, owner model.OwnerKey) (func(), error) {
	l.mu.Lock()
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{sem: make(chan struct{}, 1)}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	select {
	case ol.sem <- struct{}{}:
		return func() {
			<-ol.sem
			l.release(owner, ol)
		}, nil
	case <-ctx.Done():
		l.release(owner, ol)
		return nil, ctx.Err()
	}
}

func (l *ownerLocks) release(owner model.OwnerKey, ol *ownerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ol.refs--
	if ol.refs == 0 {
		delete(l.locks, owner)
	}
}

// held returns how many owners currently have an entry
func (l *ownerLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
