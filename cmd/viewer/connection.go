package main

import "sync"

// connection holds the active peer and the sender it targets. Signaling
// callbacks and the main goroutine share it.
type connection[T any] struct {
	mu     sync.Mutex
	peer   T
	target string
	set    bool
}

// get returns the peer, if one has been created.
func (c *connection[T]) get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer, c.set
}

// open runs create for target unless a peer already exists. The returned
// bool reports whether create ran and succeeded.
func (c *connection[T]) open(target string, create func() (T, error)) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return c.peer, false, nil
	}
	p, err := create()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.peer, c.target, c.set = p, target, true
	return p, true, nil
}

// isTarget reports whether id is the sender the peer was opened for.
func (c *connection[T]) isTarget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set && c.target == id
}
