package locks

import "sync"

var mu sync.Mutex

type counter struct {
	mu sync.RWMutex
	n  int
}

func balanced() {
	mu.Lock()
	mu.Unlock()
}

func deferred() int {
	mu.Lock()
	defer mu.Unlock()
	return 0
}

func leak(b bool) { // want "unbalanced lock/unlock pairing" "lock may be held at return: \\{locks.mu\\}"
	mu.Lock()
	if b {
		mu.Unlock()
	}
}

func unlockOnly() { // want "unbalanced lock/unlock pairing"
	mu.Unlock()
}

func loop(n int) {
	for i := 0; i < n; i++ {
		mu.Lock()
		mu.Unlock()
	}
}

func (c *counter) get() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.n
}

func (c *counter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func viaLocker(l sync.Locker) {
	l.Lock()
	l.Unlock()
}
