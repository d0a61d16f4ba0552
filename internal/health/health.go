// Package health provides system health monitoring and status reporting.
package health

import "github.com/vietddude/cinemap/internal/infra/transport"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ServiceHealth contains health metrics for one upstream service.
type ServiceHealth struct {
	Name   string                 `json:"name"`
	Status SystemStatus           `json:"status"`
	Stats  transport.MonitorStats `json:"stats"`
	Quota  *transport.UsageStats  `json:"quota,omitempty"`
}

// DependencyHealth is the result of pinging a backing store.
type DependencyHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus                `json:"system_status"`
	Services     map[string]ServiceHealth    `json:"services"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}
