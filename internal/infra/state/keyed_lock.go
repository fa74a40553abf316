package state

import (
	"context"
	"sync"

	"whatsapp-catalog-bot/internal/domain/ports/repository"
)

var _ repository.SenderLocker = (*KeyedLocker)(nil)

// KeyedLocker is a per-sender mutex. Entries are reference counted and
// dropped once nobody holds or waits on them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until the sender's lock is free or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, senderID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[senderID]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		l.locks[senderID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(senderID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(senderID, e)
		})
	}, nil
}

func (l *KeyedLocker) release(senderID string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, senderID)
	}
}

// size reports the number of live entries.
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
