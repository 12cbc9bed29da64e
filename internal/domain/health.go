package domain

import "time"

// HealthStatus grades a readiness probe. Ordering by severity is ok < degraded < error.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusOK:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the more severe of s and other.
func (s HealthStatus) Worst(other HealthStatus) HealthStatus {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

type HealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// HealthReport is keyed by probe name; Status is the worst of its checks.
type HealthReport struct {
	Status      HealthStatus
	Checks      map[string]HealthCheck
	GeneratedAt time.Time
}
