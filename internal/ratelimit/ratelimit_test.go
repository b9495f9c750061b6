package ratelimit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sitedex/internal/ratelimit"
)

type fakeCounter struct {
	n   int
	err error
}

func (c fakeCounter) CountSubmissionsSince(ctx context.Context, userID, userIP, cutoff string) (int, error) {
	return c.n, c.err
}

func TestSubmissionLimiter(t *testing.T) {
	l := ratelimit.SubmissionLimiter{Counter: fakeCounter{n: 2}, PerDay: 5}
	d := l.Check(context.Background(), "user-1", "")
	if !d.Allowed || d.Remaining != 2 {
		t.Fatalf("allowed=%v remaining=%d, want true/2", d.Allowed, d.Remaining)
	}

	l.Counter = fakeCounter{n: 5}
	d = l.Check(context.Background(), "user-1", "")
	if d.Allowed {
		t.Fatalf("ceiling reached but allowed")
	}
	if d.Reason == "" {
		t.Fatalf("blocked decision has no reason")
	}
}

func TestSubmissionLimiterFailOpen(t *testing.T) {
	l := ratelimit.SubmissionLimiter{Counter: fakeCounter{err: fmt.Errorf("db closed")}, PerDay: 5}
	d := l.Check(context.Background(), "user-1", "")
	if !d.Allowed {
		t.Fatalf("count failure must not block submissions")
	}
}

func TestWindowLimiter(t *testing.T) {
	l := ratelimit.NewWindowLimiter(3, time.Hour)
	defer l.Close()
	for i := 0; i < 3; i++ {
		if d := l.Check("ip-1"); !d.Allowed {
			t.Fatalf("check %d blocked early", i)
		}
	}
	if d := l.Check("ip-1"); d.Allowed {
		t.Fatalf("over-quota check allowed")
	}
	if d := l.Check("ip-2"); !d.Allowed {
		t.Fatalf("independent identity blocked")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	l := ratelimit.NewWindowLimiter(1, time.Hour)
	defer l.Close()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.SetNow(func() time.Time { return now })

	if d := l.Check("ip-1"); !d.Allowed {
		t.Fatalf("first check blocked")
	}
	if d := l.Check("ip-1"); d.Allowed {
		t.Fatalf("second check within window allowed")
	}
	now = now.Add(61 * time.Minute)
	l.SetNow(func() time.Time { return now })
	if d := l.Check("ip-1"); !d.Allowed {
		t.Fatalf("check after window expiry blocked")
	}
}

func TestWindowLimiterEvict(t *testing.T) {
	l := ratelimit.NewWindowLimiter(1, time.Hour)
	defer l.Close()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.SetNow(func() time.Time { return now })
	l.Check("ip-1")
	l.Check("ip-2")

	now = now.Add(2 * time.Hour)
	l.SetNow(func() time.Time { return now })
	l.Evict()
	// after eviction both identities start a fresh window
	if d := l.Check("ip-1"); !d.Allowed {
		t.Fatalf("evicted identity still blocked")
	}
	if d := l.Check("ip-2"); !d.Allowed {
		t.Fatalf("evicted identity still blocked")
	}
}
