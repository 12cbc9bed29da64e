package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hanko-field/catalog-console/internal/domain"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// Probe is one named dependency check run by the readiness endpoint.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// ProbeOption customises the probe-backed health repository.
type ProbeOption func(*probeHealthRepository)

// WithProbeTimeout overrides the timeout applied to probes that do not set their own.
func WithProbeTimeout(timeout time.Duration) ProbeOption {
	return func(repo *probeHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

// WithProbeClock injects a clock for tests.
func WithProbeClock(clock func() time.Time) ProbeOption {
	return func(repo *probeHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type probeHealthRepository struct {
	probes         []Probe
	defaultTimeout time.Duration
	now            func() time.Time
}

var _ HealthRepository = (*probeHealthRepository)(nil)

// NewProbeHealthRepository validates the probe set up front and returns a HealthRepository.
func NewProbeHealthRepository(probes []Probe, opts ...ProbeOption) (HealthRepository, error) {
	if len(probes) == 0 {
		return nil, errors.New("health repository: at least one probe is required")
	}
	for _, p := range probes {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("health repository: probe missing name")
		}
		if p.Check == nil {
			return nil, fmt.Errorf("health repository: probe %s missing check function", p.Name)
		}
	}
	repo := &probeHealthRepository{
		probes:         append([]Probe(nil), probes...),
		defaultTimeout: defaultProbeTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

func (r *probeHealthRepository) Collect(ctx context.Context) (domain.HealthReport, error) {
	if ctx == nil {
		return domain.HealthReport{}, errors.New("health repository: context is required")
	}

	results := make([]domain.HealthCheck, len(r.probes))
	var wg sync.WaitGroup
	for i, probe := range r.probes {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			results[i] = r.run(ctx, probe)
		}(i, probe)
	}
	wg.Wait()

	report := domain.HealthReport{
		Status:      domain.HealthStatusOK,
		Checks:      make(map[string]domain.HealthCheck, len(results)),
		GeneratedAt: r.now(),
	}
	for i, res := range results {
		report.Checks[r.probes[i].Name] = res
		report.Status = report.Status.Worst(res.Status)
	}
	return report, nil
}

func (r *probeHealthRepository) run(ctx context.Context, probe Probe) domain.HealthCheck {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := probe.Check(probeCtx)
	end := r.now()

	res := domain.HealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    "ok",
		Latency:   end.Sub(start),
		CheckedAt: end,
	}
	if err == nil && probeCtx.Err() != nil {
		err = probeCtx.Err()
	}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		res.Status, res.Detail, res.Error = domain.HealthStatusError, "timeout", err.Error()
	case errors.Is(err, context.Canceled):
		res.Status, res.Detail, res.Error = domain.HealthStatusError, "cancelled", err.Error()
	default:
		res.Status, res.Detail, res.Error = domain.HealthStatusDegraded, err.Error(), err.Error()
	}
	return res
}
