// Package health aggregates component health checks.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Pinger checks one component's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks over named components.
type Service struct {
	checks map[string]Pinger
}

// New creates a Service. Register components with Add.
func New() *Service {
	return &Service{checks: make(map[string]Pinger)}
}

// Add registers a component check. Nil pingers are ignored so callers can
// pass optional backends without guarding.
func (s *Service) Add(name string, p Pinger) {
	if p == nil {
		return
	}
	s.checks[name] = p
}

// Check runs every registered check.
func (s *Service) Check(ctx context.Context) Report {
	results := make(map[string]CheckResult, len(s.checks))

	status := Healthy
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = CheckError
			status = Degraded
		} else {
			results[name] = CheckOK
		}
	}

	return Report{Status: status, Checks: results}
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping calls the wrapped function.
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
