package session

import "sync"

// Locker serializes turns per session identifier. The stores perform an
// unguarded read-modify-write, so the orchestrator holds the session's lock
// for the whole load-mutate-save cycle; without it two concurrent turns on
// the same id would race and the second save would clobber the first.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for id, creating it on first use. Locks are never
// evicted; one mutex per session id is cheap at the scale this service runs.
func (l *Locker) Lock(id string) {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for id. Panics if Lock was not called first,
// matching sync.Mutex semantics.
func (l *Locker) Unlock(id string) {
	l.mu.Lock()
	m := l.locks[id]
	l.mu.Unlock()
	m.Unlock()
}
