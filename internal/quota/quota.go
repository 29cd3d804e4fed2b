// Package quota implements per-client fixed-window call counters: a daily
// cap on expensive vision analyses and hourly caps on the chat endpoints.
// Counters live in memory for the lifetime of the process; window rollover
// is detected lazily on access rather than by background expiry.
package quota

import (
	"sync"
	"time"
)

// Kind identifies one tracked action.
type Kind int

const (
	// Vision counts photo analyses, capped per calendar day.
	Vision Kind = iota
	// Chat counts /chat calls, capped per rolling hour.
	Chat
	// Upload counts /chat-upload calls, capped per rolling hour.
	Upload
)

const (
	maxVisionPerDay   = 3
	maxChatPerHour    = 20
	maxUploadsPerHour = 10
)

func limitFor(kind Kind) int {
	switch kind {
	case Vision:
		return maxVisionPerDay
	case Chat:
		return maxChatPerHour
	case Upload:
		return maxUploadsPerHour
	default:
		return 0
	}
}

// expired reports whether a window opened at start has rolled over by now.
// Vision uses calendar days; the hourly kinds use a rolling hour.
func expired(kind Kind, start, now time.Time) bool {
	if kind == Vision {
		y1, m1, d1 := start.Date()
		y2, m2, d2 := now.Date()
		return y1 != y2 || m1 != m2 || d1 != d2
	}
	return now.Sub(start) >= time.Hour
}

type counterKey struct {
	key  string
	kind Kind
}

type counter struct {
	windowStart time.Time
	count       int
}

// Guard tracks fixed-window counters keyed by client key (normally the
// remote IP). Safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[counterKey]*counter
}

// NewGuard creates a Guard using the wall clock.
func NewGuard() *Guard {
	return NewGuardWithClock(time.Now)
}

// NewGuardWithClock creates a Guard with an injectable clock for tests.
func NewGuardWithClock(now func() time.Time) *Guard {
	return &Guard{
		now:      now,
		counters: make(map[counterKey]*counter),
	}
}

// Allow reports whether key still has budget for kind in the current window.
// It never consumes budget; call Record once the action is admitted.
func (g *Guard) Allow(key string, kind Kind) bool {
	return g.Remaining(key, kind) > 0
}

// Record consumes one unit of budget for key, opening a fresh window if the
// previous one has rolled over.
func (g *Guard) Record(key string, kind Kind) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	ck := counterKey{key: key, kind: kind}
	c, ok := g.counters[ck]
	if !ok || expired(kind, c.windowStart, now) {
		g.counters[ck] = &counter{windowStart: now, count: 1}
		return
	}
	c.count++
}

// Remaining returns how many calls of kind the key has left in the current
// window. Reading never mutates counter state.
func (g *Guard) Remaining(key string, kind Kind) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit := limitFor(kind)
	c, ok := g.counters[counterKey{key: key, kind: kind}]
	if !ok || expired(kind, c.windowStart, g.now()) {
		return limit
	}
	if c.count >= limit {
		return 0
	}
	return limit - c.count
}
