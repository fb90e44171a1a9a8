package group

import "sync"

// chainLocks hands out one mutex per (group, sender) chain. Mutexes are
// never reclaimed; the set of chains a client touches is small.
type chainLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newChainLocks() *chainLocks {
	return &chainLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the chain's mutex and returns its unlock func.
func (c *chainLocks) lock(key string) func() {
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}
