// Package ratelimit bounds how many submissions or uploads an identity may
// create within a rolling window.
package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Decision is the outcome of a rate check.
type Decision struct {
	Allowed   bool
	Remaining int
	Reason    string
}

// Counter counts prior actions by an identity since a cutoff. The repo
// satisfies this for submissions.
type Counter interface {
	CountSubmissionsSince(ctx context.Context, userID, userIP, cutoff string) (int, error)
}

// SubmissionLimiter enforces a per-identity daily submission ceiling backed
// by the persistent store.
type SubmissionLimiter struct {
	Counter Counter
	PerDay  int
	Now     func() time.Time
	Logger  *log.Logger
}

func (l SubmissionLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l SubmissionLimiter) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

// Check counts submissions in the trailing 24 hours. A counting failure is
// fail-open: blocking legitimate users is worse than an undercount.
func (l SubmissionLimiter) Check(ctx context.Context, userID, userIP string) Decision {
	cutoff := l.now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	n, err := l.Counter.CountSubmissionsSince(ctx, userID, userIP, cutoff)
	if err != nil {
		l.logger().Printf("rate limit count failed, allowing (undercount risk): %v", err)
		return Decision{Allowed: true, Remaining: l.PerDay}
	}
	if n >= l.PerDay {
		return Decision{
			Allowed:   false,
			Remaining: 0,
			Reason:    "daily submission limit reached; quota frees up as submissions age past 24 hours",
		}
	}
	return Decision{Allowed: true, Remaining: l.PerDay - n - 1}
}

type windowEntry struct {
	count     int
	expiresAt time.Time
}

// WindowLimiter is a process-local fixed-window limiter with periodic
// eviction, used for upload authorization. Multi-instance deployments
// enforce the ceiling per process.
type WindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	max     int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
}

// NewWindowLimiter starts the background eviction ticker. Call Close to
// stop it.
func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	l := &WindowLimiter{
		entries: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

func (l *WindowLimiter) evictLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Evict()
		}
	}
}

// Evict drops expired windows to bound memory growth.
func (l *WindowLimiter) Evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, id)
		}
	}
}

// Check consumes one unit of the identity's window quota.
func (l *WindowLimiter) Check(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	e, ok := l.entries[identity]
	if !ok || now.After(e.expiresAt) {
		l.entries[identity] = &windowEntry{count: 1, expiresAt: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1}
	}
	if e.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, Reason: "upload limit reached; retry after the current window expires"}
	}
	e.count++
	return Decision{Allowed: true, Remaining: l.max - e.count}
}

// Close stops the eviction goroutine.
func (l *WindowLimiter) Close() {
	close(l.stop)
}

// SetNow overrides the clock, for tests.
func (l *WindowLimiter) SetNow(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
