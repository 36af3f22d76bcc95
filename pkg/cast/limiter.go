package cast

import (
	"sync"
	"time"
)

// RateLimiter gates frames per sink so outgoing load stays within the
// configured frame rate. It is a plain time gate: a frame passes iff at
// least the minimum interval elapsed since the last passed frame, no
// burst credit accumulates across skipped frames.
type RateLimiter struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	last      map[string]time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		intervals: make(map[string]time.Duration),
		last:      make(map[string]time.Time),
	}
}

// SetRate sets the target frame rate for a sink id.
func (l *RateLimiter) SetRate(id string, fps int) {
	if fps <= 0 {
		return
	}
	l.mu.Lock()
	l.intervals[id] = time.Second / time.Duration(fps)
	l.mu.Unlock()
}

// Allow reports whether a frame for the sink may pass at the given time
// and records it as the last passed frame if so. A false result means
// the caller silently drops the frame.
func (l *RateLimiter) Allow(id string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.last[id]) < l.intervals[id] {
		return false
	}
	l.last[id] = now
	return true
}
