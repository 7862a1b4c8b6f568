package lifecycle

import "sync"

// lockset hands out one mutex per item id. Entries are dropped when the last
// holder or waiter releases them.
type lockset struct {
	mu    sync.Mutex
	locks map[int64]*itemLock
}

type itemLock struct {
	mu   sync.Mutex
	refs int
}

func newLockset() *lockset {
	return &lockset{locks: make(map[int64]*itemLock)}
}

// lock blocks until id is held and returns the matching unlock.
func (s *lockset) lock(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &itemLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *lockset) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
