package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/cinemap/internal/infra/transport"
)

// Upstream is an HTTP service the pipeline depends on.
type Upstream interface {
	Name() string
	Monitor() *transport.Monitor
	Usage() *transport.UsageStats
}

// Checker pings a backing dependency such as a database.
type Checker func(ctx context.Context) error

// Monitor aggregates health status from upstream monitors and dependencies.
type Monitor struct {
	upstreams  []Upstream
	checkers   map[string]Checker
	interval   time.Duration
	lastCheck  time.Time
	lastReport *HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(upstreams []Upstream, checkers map[string]Checker) *Monitor {
	return &Monitor{
		upstreams: upstreams,
		checkers:  checkers,
		interval:  10 * time.Second,
	}
}

// CheckHealth builds a health report. Dependency ping results are reused
// for the check interval.
func (m *Monitor) CheckHealth(ctx context.Context) *HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deps map[string]DependencyHealth
	if m.lastReport != nil && time.Since(m.lastCheck) < m.interval {
		deps = m.lastReport.Dependencies
	} else {
		deps = m.checkDependencies(ctx)
		m.lastCheck = time.Now()
	}

	report := &HealthReport{
		SystemStatus: StatusHealthy,
		Services:     make(map[string]ServiceHealth, len(m.upstreams)),
		Dependencies: deps,
	}

	for _, up := range m.upstreams {
		stats := up.Monitor().Stats()
		h := ServiceHealth{
			Name:   up.Name(),
			Status: serviceStatus(stats.Status),
			Stats:  stats,
			Quota:  up.Usage(),
		}
		if h.Quota != nil && h.Quota.DailyLimit > 0 && h.Quota.RemainingCalls == 0 {
			h.Status = StatusCritical
		}
		report.Services[h.Name] = h
		report.SystemStatus = worst(report.SystemStatus, h.Status)
	}
	for _, d := range deps {
		report.SystemStatus = worst(report.SystemStatus, d.Status)
	}

	m.lastReport = report
	return report
}

func (m *Monitor) checkDependencies(ctx context.Context) map[string]DependencyHealth {
	if len(m.checkers) == 0 {
		return nil
	}
	deps := make(map[string]DependencyHealth, len(m.checkers))
	for name, check := range m.checkers {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(pingCtx)
		cancel()

		d := DependencyHealth{Name: name, Status: StatusHealthy}
		if err != nil {
			// Caches are optional; a failing one degrades but never stops resolution.
			d.Status = StatusDegraded
			d.Error = err.Error()
		}
		deps[name] = d
	}
	return deps
}

// serviceStatus maps an upstream monitor status onto the system scale.
// A blocked upstream makes the pipeline unusable.
func serviceStatus(s transport.Status) SystemStatus {
	switch s {
	case transport.StatusHealthy:
		return StatusHealthy
	case transport.StatusBlocked:
		return StatusCritical
	default:
		return StatusDegraded
	}
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
