package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// ResetIn is the time left in the current window.
	ResetIn time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a per-key fixed-window counter held in process memory.
type Limiter struct {
	mu         sync.Mutex
	m          map[string]*window
	limit      int
	period     time.Duration
	now        func() time.Time
	sweepEvery time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSweep starts a goroutine that drops finished windows every interval.
func WithSweep(interval time.Duration) Option {
	return func(l *Limiter) { l.sweepEvery = interval }
}

// New allows limit requests per key in each period.
func New(limit int, period time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		m:      make(map[string]*window),
		limit:  limit,
		period: period,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sweepEvery > 0 {
		go l.sweep(l.sweepEvery)
	}
	return l
}

// Allow counts one request for key.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.m[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.m[key] = w
	}

	d := Decision{Limit: l.limit, ResetAt: w.resetAt, ResetIn: w.resetAt.Sub(now)}
	if w.count >= l.limit {
		return d
	}
	w.count++
	d.Allowed = true
	d.Remaining = l.limit - w.count
	return d
}

// Len reports how many keys hold a window, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *Limiter) prune() {
	now := l.now()
	l.mu.Lock()
	for key, w := range l.m {
		if !now.Before(w.resetAt) {
			delete(l.m, key)
		}
	}
	l.mu.Unlock()
}

// Close stops the sweeper.
func (l *Limiter) Close() error {
	l.closeOnce.Do(func() { close(l.stop) })
	return nil
}
