package pipeline

import "context"

// Limiter caps how many runs may hold the fetch/transcode phase at once.
// A nil Limiter means unlimited.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter returns a limiter with n slots. n is floored at 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is available or the context is canceled.
// Returns false when canceled before a slot freed up.
func (l *Limiter) Acquire(ctx context.Context) bool {
	select {
	case l.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release frees a slot. Safe against mismatched calls.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// Active reports how many slots are currently held.
func (l *Limiter) Active() int {
	return len(l.slots)
}

// Cap reports the slot count.
func (l *Limiter) Cap() int {
	return cap(l.slots)
}
