package http

import "time"

// rateLimiter counts messages in fixed one-minute windows. It is owned
// by a single read loop and needs no locking.
type rateLimiter struct {
	limit  int
	count  int
	window time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := time.Now()
	if now.Sub(r.window) >= time.Minute {
		r.window = now
		r.count = 0
	}
	r.count++
	return r.count <= r.limit
}
