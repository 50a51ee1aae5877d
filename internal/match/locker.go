package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/oggyb/leomatch/internal/db"
)

// Locker serializes engine calls that touch the same key.
// The returned unlock func must be called exactly once; extra calls are ignored.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func pairKey(a, b uint64) string {
	low, high := db.OrderedPair(a, b)
	return fmt.Sprintf("pair:%d:%d", low, high)
}

func profileKey(id uint64) string {
	return fmt.Sprintf("profile:%d", id)
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once unused.
// It only serializes callers inside one process; multi-replica deployments
// use the Redis locker from the cache package.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-k.ch
				l.release(key, k)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, k)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(key string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.locks, key)
	}
}

// size is the number of live keys; used by tests.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
