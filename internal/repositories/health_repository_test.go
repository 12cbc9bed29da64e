package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hanko-field/catalog-console/internal/domain"
)

func TestProbeHealthRepositoryCollectSuccess(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo, err := NewProbeHealthRepository([]Probe{
		{Name: "catalog_service", Check: func(context.Context) error { return nil }},
		{Name: "snapshot", Check: func(context.Context) error { return nil }},
	}, WithProbeClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(report.Checks))
	}
	if report.GeneratedAt != now || report.Checks["snapshot"].CheckedAt != now {
		t.Fatalf("expected injected clock to be used")
	}
}

func TestProbeHealthRepositoryCollectDegraded(t *testing.T) {
	boom := errors.New("boom")
	repo, err := NewProbeHealthRepository([]Probe{
		{Name: "catalog_service", Check: func(context.Context) error { return boom }},
		{Name: "snapshot", Check: func(context.Context) error { return nil }},
	})
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if got := report.Checks["catalog_service"].Error; got != boom.Error() {
		t.Fatalf("expected error %q, got %q", boom.Error(), got)
	}
}

func TestProbeHealthRepositoryCollectTimeout(t *testing.T) {
	repo, err := NewProbeHealthRepository([]Probe{{
		Name:    "catalog_service",
		Timeout: 5 * time.Millisecond,
		Check: func(ctx context.Context) error {
			select {
			case <-time.After(time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}})
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusError {
		t.Fatalf("expected error status, got %s", report.Status)
	}
	if detail := report.Checks["catalog_service"].Detail; detail != "timeout" {
		t.Fatalf("expected timeout detail, got %s", detail)
	}
}

func TestNewProbeHealthRepositoryRejectsIncompleteProbes(t *testing.T) {
	if _, err := NewProbeHealthRepository(nil); err == nil {
		t.Fatalf("expected error for empty probe set")
	}
	if _, err := NewProbeHealthRepository([]Probe{{Name: " ", Check: func(context.Context) error { return nil }}}); err == nil {
		t.Fatalf("expected error for unnamed probe")
	}
	if _, err := NewProbeHealthRepository([]Probe{{Name: "x"}}); err == nil {
		t.Fatalf("expected error for missing check")
	}
}
