package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/logger"
)

// Status is the overall verdict of a health check.
type Status string

// Overall statuses. Only a failing vendor store makes the service unhealthy;
// without the candidate cache searches still succeed, just slower.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of probing one component.
type CheckResult string

// Per-component outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names used as keys in Report.Checks.
const (
	ComponentDatabase = "database"
	ComponentCache    = "cache"
)

// DefaultProbeTimeout bounds each component probe.
const DefaultProbeTimeout = 2 * time.Second

// Report is the aggregated result.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name     string
	pinger   Pinger
	required bool
}

// Service probes the vendor store and, when configured, the candidate cache.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. A nil cache is left out of the report.
func New(store, cache Pinger) *Service {
	s := &Service{
		probes:  []probe{{name: ComponentDatabase, pinger: store, required: true}},
		timeout: DefaultProbeTimeout,
	}
	if cache != nil {
		s.probes = append(s.probes, probe{name: ComponentCache, pinger: cache})
	}
	return s
}

// Check probes every component concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.probes))

	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.run(ctx, p)
		}()
	}
	wg.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes))}
	for i, p := range s.probes {
		report.Checks[p.name] = results[i]
		if results[i] == CheckOK {
			continue
		}
		switch {
		case p.required:
			report.Status = Unhealthy
		case report.Status == Healthy:
			report.Status = Degraded
		}
	}
	return report
}

func (s *Service) run(ctx context.Context, p probe) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := p.pinger.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("health probe failed",
			zap.String("component", p.name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
