package core

import (
	"fmt"
	"sync"
)

// Limiter enforces a maximum number of generate calls per panel session.
type Limiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewLimiter creates a new limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewLimiter(max int) *Limiter {
	return &Limiter{max: max}
}

// Increment reserves one call and returns ErrLimitExceeded once the budget is
// used up. A rejected call does not consume budget.
func (l *Limiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.count >= l.max {
		return fmt.Errorf("%w: max %d", ErrLimitExceeded, l.max)
	}
	l.count++

	return nil
}

// Count returns the current number of calls made.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many calls are left before hitting the limit.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return l.max - l.count
}
