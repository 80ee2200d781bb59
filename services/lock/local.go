package locksvc

import (
	"context"
	"sync"
	"time"

	"github.com/moringapair/backend/core/pairing"
)

// LocalLocker holds the locks in process. Used with a single instance of the application.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]lease
	seq  uint64
	now  func() time.Time
}

type lease struct {
	id      uint64
	expires time.Time
}

var _ pairing.Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]lease), now: time.Now}
}

// Lock expires after ttl like the redis one. ttl <= 0 never expires.
func (l *LocalLocker) Lock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return nil, pairing.ErrLockNotAcquired
	}

	l.seq++
	ls := lease{id: l.seq}
	if ttl > 0 {
		ls.expires = now.Add(ttl)
	}
	l.held[key] = ls

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cur, ok := l.held[key]; ok && cur.id == ls.id {
				delete(l.held, key)
			}
		})
	}, nil
}
