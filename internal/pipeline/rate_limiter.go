package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// SourceRateLimiter tracks per-source-MAC frame counts so a single chatty
// station cannot flood the output. It uses a fixed window: counts reset
// once the window has elapsed.
type SourceRateLimiter struct {
	mu           sync.Mutex
	current      map[[6]byte]*atomic.Int64 // source MAC → frames in current window
	windowStart  time.Time
	windowSize   time.Duration
	maxPerWindow int64

	rejected atomic.Int64
}

// SourceRateLimiterConfig configures per-source rate limiting.
type SourceRateLimiterConfig struct {
	MaxFramesPerSource int           // 0 = disabled
	Window             time.Duration // default 10s
}

// NewSourceRateLimiter creates a rate limiter. Returns nil if disabled.
func NewSourceRateLimiter(cfg SourceRateLimiterConfig) *SourceRateLimiter {
	if cfg.MaxFramesPerSource <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	return &SourceRateLimiter{
		current:      make(map[[6]byte]*atomic.Int64),
		windowSize:   cfg.Window,
		maxPerWindow: int64(cfg.MaxFramesPerSource),
	}
}

// Allow reports whether a frame from src seen at now is within the limit.
// A nil limiter allows everything.
func (l *SourceRateLimiter) Allow(src [6]byte, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.windowSize {
		l.current = make(map[[6]byte]*atomic.Int64)
		l.windowStart = now
	}

	counter, exists := l.current[src]
	if !exists {
		counter = &atomic.Int64{}
		l.current[src] = counter
	}
	l.mu.Unlock()

	if counter.Add(1) > l.maxPerWindow {
		l.rejected.Add(1)
		return false
	}
	return true
}

// Rejected returns the total number of rejected frames.
func (l *SourceRateLimiter) Rejected() int64 {
	if l == nil {
		return 0
	}
	return l.rejected.Load()
}

// ActiveSources returns the number of distinct sources in the current window.
func (l *SourceRateLimiter) ActiveSources() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.current)
}
