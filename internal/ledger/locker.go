package ledger

import (
	"sort"
	"sync"
)

// Locker hands out per-account mutexes so that concurrent operations
// touching the same accounts are serialized in-process. Lock acquires
// the ids in ascending order, which keeps multi-account operations
// deadlock-free.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires every id (deduplicated, ascending) and returns a release
// function. The release function is safe to call more than once; callers
// release early to run side effects outside the critical section.
func (l *Locker) Lock(ids ...string) func() {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Strings(unique)

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].Unlock()
			}
		})
	}
}
