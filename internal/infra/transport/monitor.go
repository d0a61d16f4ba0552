package transport

import (
	"strings"
	"sync"
	"time"
)

// Status represents the health state of an upstream service.
type Status int

const (
	StatusHealthy   Status = iota // Service is working normally
	StatusDegraded                // Service is slow or failing often
	StatusThrottled               // Service is rate limiting
	StatusBlocked                 // Service has blocked this client
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON health reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MonitorStats holds monitoring statistics for a service.
type MonitorStats struct {
	Status           Status        `json:"status"`
	AverageLatency   time.Duration `json:"average_latency"`
	Requests         int           `json:"requests"`
	Failures         int           `json:"failures"`
	ErrorRate        float64       `json:"error_rate"`
	ThrottleCount429 int           `json:"throttle_count_429"`
	ThrottleCount403 int           `json:"throttle_count_403"`
	LastSuccessAt    time.Time     `json:"last_success_at"`
	LastFailureAt    time.Time     `json:"last_failure_at"`
}

// Monitor tracks service latency, failures and rate limiting.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	requests      int
	failures      int
	lastSuccessAt time.Time
	lastFailureAt time.Time

	status429Count     int
	status403Count     int
	throttlePatterns   []string
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	degradedThreshold     float64
}

// NewMonitor creates a new monitor with default settings.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"request limit reached",
			"bandwidth limit exceeded",
		},
		slowResponseThreshold: 3 * time.Second,
		degradedThreshold:     0.3, // 30% error rate
	}
}

// RecordSuccess records a successful attempt with its latency.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.lastSuccessAt = time.Now()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordFailure records a failed attempt.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.failures++
	m.lastFailureAt = time.Now()
}

// RecordThrottle records a rate limiting or blocking response.
func (m *Monitor) RecordThrottle(statusCode int, retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastThrottleTime = time.Now()

	switch statusCode {
	case 429:
		m.status429Count++
		if retryAfter > 0 {
			m.retryAfterDuration = retryAfter
		} else {
			m.retryAfterDuration = 60 * time.Second
		}
	case 403:
		m.status403Count++
		m.retryAfterDuration = 10 * time.Minute // Longer for IP block
	}
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (m *Monitor) DetectThrottlePattern(message string) bool {
	lowerMsg := strings.ToLower(message)
	for _, pattern := range m.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// Status returns the current status of the service.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	throttled := time.Since(m.lastThrottleTime) < m.retryAfterDuration

	if m.status403Count > 0 && throttled {
		return StatusBlocked
	}
	if m.status429Count > 0 && throttled {
		return StatusThrottled
	}

	if m.requests >= 10 && float64(m.failures)/float64(m.requests) > m.degradedThreshold {
		return StatusDegraded
	}
	if len(m.recentLatencies) > 10 && m.averageLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

func (m *Monitor) averageLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// RetryAfter returns remaining time before the service expects new requests.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.retryAfterDuration > 0 {
		remaining := m.retryAfterDuration - time.Since(m.lastThrottleTime)
		if remaining > 0 {
			return remaining
		}
	}
	return 0
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		Status:           m.statusLocked(),
		AverageLatency:   m.averageLocked(),
		Requests:         m.requests,
		Failures:         m.failures,
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		LastSuccessAt:    m.lastSuccessAt,
		LastFailureAt:    m.lastFailureAt,
	}
	if m.requests > 0 {
		stats.ErrorRate = float64(m.failures) / float64(m.requests)
	}
	return stats
}
