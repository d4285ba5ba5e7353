package live

import "time"

// Backoff computes reconnect delays: Base * 2^(n-1), capped at Ceiling.
type Backoff struct {
	Base    time.Duration
	Ceiling time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Ceiling: 30 * time.Second}
}

// Delay returns the wait before reconnect attempt n (n >= 1).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := b.Base
	for i := 1; i < n; i++ {
		if d >= b.Ceiling {
			break
		}
		d *= 2
	}
	if d > b.Ceiling {
		d = b.Ceiling
	}
	return d
}
