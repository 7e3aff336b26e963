// Package health reports readiness and component status.
package health

import (
	"context"
	"sync/atomic"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the service is ready and all components are operational.
	Healthy Status = "healthy"
	// Degraded indicates the service is ready but an optional component fails.
	Degraded Status = "degraded"
	// Unhealthy indicates the service is not ready to answer.
	Unhealthy Status = "unhealthy"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status       Status
	Ready        bool
	TotalRecords int
	Checks       map[string]CheckResult
}

// Components are the parts checked once the service is ready.
// Cache and Embedding are optional.
type Components struct {
	Records   RecordCounter
	Cache     DBPinger
	Embedding EmbeddingChecker
}

// Service coordinates health checks. It reports Unhealthy until MarkReady is called.
type Service struct {
	components atomic.Pointer[Components]
}

// New creates a Service in the not-ready state.
func New() *Service {
	return &Service{}
}

// MarkReady publishes the initialized components. Called once, after startup completes.
func (s *Service) MarkReady(c Components) {
	s.components.Store(&c)
}

// Ready reports whether startup has completed.
func (s *Service) Ready() bool {
	return s.components.Load() != nil
}

// Check runs health checks against all registered components.
func (s *Service) Check(ctx context.Context) Report {
	c := s.components.Load()
	if c == nil {
		return Report{Status: Unhealthy, Checks: map[string]CheckResult{"startup": CheckError}}
	}

	checks := map[string]CheckResult{"corpus": CheckOK}
	total := 0
	if c.Records != nil {
		total = c.Records.RecordCount()
	}

	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if c.Embedding != nil {
		if err := c.Embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Ready: true, TotalRecords: total, Checks: checks}
}
