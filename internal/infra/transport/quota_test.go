package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/retry"
)

func TestNewQuota_Disabled(t *testing.T) {
	q := NewQuota("omdb", QuotaConfig{})
	if q != nil {
		t.Fatal("expected nil quota without limits")
	}
	if err := q.Acquire(context.Background(), sleepContext); err != nil {
		t.Errorf("nil quota must admit attempts: %v", err)
	}
}

func TestQuota_DailyLimit(t *testing.T) {
	q := NewQuota("omdb", QuotaConfig{DailyLimit: 2})
	noWait := func(ctx context.Context, d time.Duration) error { return nil }

	for i := 0; i < 2; i++ {
		if err := q.Acquire(context.Background(), noWait); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}

	err := q.Acquire(context.Background(), noWait)
	if !errors.Is(err, ErrQuotaExhausted) || !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected quota exhaustion, got %v", err)
	}
	if retry.ShouldRetry(err) {
		t.Error("quota exhaustion must not be retried")
	}

	usage := q.Usage()
	if usage.TotalCalls != 2 || usage.RemainingCalls != 0 || usage.UsagePercentage != 100 {
		t.Errorf("unexpected usage %+v", usage)
	}
}

func TestQuota_ResetsAtMidnight(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	q := NewQuota("omdb", QuotaConfig{DailyLimit: 1})
	q.now = func() time.Time { return now }
	q.resetUnsafe()
	noWait := func(ctx context.Context, d time.Duration) error { return nil }

	if err := q.Acquire(context.Background(), noWait); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Acquire(context.Background(), noWait); err == nil {
		t.Fatal("expected quota exhaustion")
	}

	now = now.Add(2 * time.Minute)
	if err := q.Acquire(context.Background(), noWait); err != nil {
		t.Errorf("expected quota to reset after midnight, got %v", err)
	}
}

func TestQuota_MinInterval(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := NewQuota("nominatim", QuotaConfig{MinInterval: time.Second})
	q.now = func() time.Time { return now }

	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	// Three back-to-back callers are spaced one interval apart.
	for i := 0; i < 3; i++ {
		if err := q.Acquire(context.Background(), sleep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []time.Duration{0, time.Second, 2 * time.Second}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("caller %d: expected wait %v, got %v", i, want[i], waits[i])
		}
	}

	// After a quiet period the next caller goes immediately.
	now = now.Add(10 * time.Second)
	waits = nil
	_ = q.Acquire(context.Background(), sleep)
	if waits[0] != 0 {
		t.Errorf("expected no wait after idle period, got %v", waits[0])
	}
}
