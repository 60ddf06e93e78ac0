package services

import "sync"

// pairLocker hands out one mutex per unordered user pair. Entries are dropped
// once nobody holds or waits for them, so the map only grows with live contention.
type pairLocker struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocker() *pairLocker {
	return &pairLocker{locks: make(map[string]*pairLock)}
}

// Lock blocks until the pair is free and returns the matching unlock func.
func (p *pairLocker) Lock(key string) func() {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocker) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
