package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanko-field/catalog-console/internal/repositories"
)

func TestHealthzReportsBuildInfo(t *testing.T) {
	started := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthHandlers(
		WithHealthBuildInfo(BuildInfo{Version: "1.4.0", CommitSHA: "abc123", StartedAt: started}),
		WithHealthClock(func() time.Time { return started.Add(90 * time.Second) }),
	)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "1m30s", body["uptime"])
	require.Equal(t, "1.4.0", body["version"])
	require.Equal(t, "abc123", body["commitSha"])
}

func TestReadyzAggregatesProbes(t *testing.T) {
	healthy, err := repositories.NewProbeHealthRepository([]repositories.Probe{
		{Name: "catalog_service", Check: func(context.Context) error { return nil }},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewHealthHandlers(WithHealthRepository(healthy)).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	failing, err := repositories.NewProbeHealthRepository([]repositories.Probe{
		{Name: "catalog_service", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	NewHealthHandlers(WithHealthRepository(failing)).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status  string                    `json:"status"`
		Checks  map[string]readinessCheck `json:"checks"`
		Details []string                  `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEqual(t, "ok", body.Status)
	require.Contains(t, body.Checks, "catalog_service")
	require.Equal(t, []string{"catalog_service: dial tcp: refused"}, body.Details)
}

func TestReadyzWithoutRepositoryIsOK(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandlers().Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
