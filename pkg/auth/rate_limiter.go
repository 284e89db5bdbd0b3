package auth

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RateLimiter decides whether key may make another call now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// maxTrackedKeys bounds memory when many distinct clients write. Evicting
// an idle client only forgets its history, which errs towards allowing.
const maxTrackedKeys = 10_000

// SlidingWindowLimiter allows at most limit calls per key within any
// window of windowSize.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    *lru.Cache[string, *window]
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

type window struct {
	mu    sync.Mutex
	calls []time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	windows, _ := lru.New[string, *window](maxTrackedKeys)
	return &SlidingWindowLimiter{
		windows:    windows,
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// NewPerMinuteLimiter allows requestsPerMinute calls per key.
func NewPerMinuteLimiter(requestsPerMinute int) *SlidingWindowLimiter {
	return NewSlidingWindowLimiter(requestsPerMinute, time.Minute)
}

// Allow records a call for key if it fits in the current window.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	w, ok := l.windows.Get(key)
	if !ok {
		w = &window{}
		l.windows.Add(key, w)
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.windowSize)

	// calls are appended in time order, so expired ones form a prefix
	expired := 0
	for expired < len(w.calls) && !w.calls[expired].After(cutoff) {
		expired++
	}
	w.calls = w.calls[expired:]

	if len(w.calls) >= l.limit {
		return false, nil
	}
	w.calls = append(w.calls, now)
	return true, nil
}

// Reset forgets key's history.
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.windows.Remove(key)
	return nil
}

// Tracked reports how many keys currently hold a window.
func (l *SlidingWindowLimiter) Tracked() int {
	return l.windows.Len()
}
