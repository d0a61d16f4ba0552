package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
)

// ErrQuotaExhausted means the configured daily request quota is spent.
var ErrQuotaExhausted = errors.New("daily request quota exhausted")

// QuotaConfig limits how hard one upstream is used. Zero values disable
// the corresponding limit.
type QuotaConfig struct {
	// DailyLimit caps attempts per calendar day.
	DailyLimit int
	// MinInterval spaces consecutive attempts, across all callers.
	MinInterval time.Duration
}

// UsageStats holds quota usage statistics.
type UsageStats struct {
	TotalCalls      int       `json:"total_calls"`
	CallsPerHour    int       `json:"calls_per_hour"`
	DailyLimit      int       `json:"daily_limit"`
	RemainingCalls  int       `json:"remaining_calls"`
	UsagePercentage float64   `json:"usage_percentage"`
	NextResetAt     time.Time `json:"next_reset_at"`
}

// QuotaError is returned when an attempt would exceed the daily quota.
type QuotaError struct {
	Service string
	ResetAt time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %s until %s", e.Service, ErrQuotaExhausted, e.ResetAt.Format(time.RFC3339))
}

// Retryable reports false: waiting out a daily quota inside a request is pointless.
func (e *QuotaError) Retryable() bool { return false }

func (e *QuotaError) Unwrap() []error {
	return []error{ErrQuotaExhausted, domain.ErrUpstreamUnavailable}
}

// Quota tracks attempts against one upstream and paces them.
type Quota struct {
	mu            sync.Mutex
	service       string
	cfg           QuotaConfig
	totalCalls    int
	callsThisHour int
	hourStartTime time.Time
	resetTime     time.Time
	nextSlot      time.Time
	now           func() time.Time
}

// NewQuota creates a quota tracker. It returns nil when cfg sets no limit;
// a nil Quota admits every attempt.
func NewQuota(service string, cfg QuotaConfig) *Quota {
	if cfg.DailyLimit <= 0 && cfg.MinInterval <= 0 {
		return nil
	}
	q := &Quota{service: service, cfg: cfg, now: time.Now}
	q.resetUnsafe()
	return q
}

// Acquire reserves the next attempt slot and waits for it using sleep.
func (q *Quota) Acquire(ctx context.Context, sleep func(context.Context, time.Duration) error) error {
	if q == nil {
		return nil
	}

	q.mu.Lock()
	now := q.now()
	if now.After(q.resetTime) {
		q.resetUnsafe()
	}
	if q.cfg.DailyLimit > 0 && q.totalCalls >= q.cfg.DailyLimit {
		resetAt := q.resetTime
		q.mu.Unlock()
		return &QuotaError{Service: q.service, ResetAt: resetAt}
	}

	if now.Sub(q.hourStartTime) >= time.Hour {
		q.callsThisHour = 0
		q.hourStartTime = now
	}
	q.totalCalls++
	q.callsThisHour++

	var wait time.Duration
	if q.cfg.MinInterval > 0 {
		slot := q.nextSlot
		if slot.Before(now) {
			slot = now
		}
		wait = slot.Sub(now)
		q.nextSlot = slot.Add(q.cfg.MinInterval)
	}
	q.mu.Unlock()

	return sleep(ctx, wait)
}

// Usage returns current usage statistics.
func (q *Quota) Usage() UsageStats {
	if q == nil {
		return UsageStats{}
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := UsageStats{
		TotalCalls:   q.totalCalls,
		CallsPerHour: q.callsThisHour,
		DailyLimit:   q.cfg.DailyLimit,
		NextResetAt:  q.resetTime,
	}
	if q.cfg.DailyLimit > 0 {
		stats.RemainingCalls = max(q.cfg.DailyLimit-q.totalCalls, 0)
		stats.UsagePercentage = float64(q.totalCalls) / float64(q.cfg.DailyLimit) * 100
	}
	return stats
}

func (q *Quota) resetUnsafe() {
	now := q.now()
	q.totalCalls = 0
	q.callsThisHour = 0
	q.hourStartTime = now
	q.resetTime = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
