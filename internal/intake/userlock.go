package intake

import "sync"

// userLocks serializes event processing per channel address. Two events for
// the same user are never decided concurrently; events for different users
// proceed in parallel.
type userLocks struct {
	mu sync.Map // channel address -> *sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{}
}

// Lock acquires the mutex for the given address, creating it on first use.
// Locks are never evicted; the per-user footprint is one mutex.
func (l *userLocks) Lock(address string) func() {
	v, _ := l.mu.LoadOrStore(address, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
