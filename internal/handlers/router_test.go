package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestRouterUnknownRouteReturnsJSON(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errorNotFoundCode, body["error"])
	require.NotEmpty(t, body["request_id"])
}

func TestRouterAdminWithoutRegistrarIsNotImplemented(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/catalog/categories", nil))

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRouterAppliesMiddlewaresAndProbes(t *testing.T) {
	var seen []string
	mark := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	router := NewRouter(WithMiddlewares(mark, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"/healthz"}, seen)
}

func TestTimeoutSkipsEventStreams(t *testing.T) {
	router := NewRouter(
		WithRequestTimeout(10*time.Millisecond),
		WithAdminRoutes(func(r chi.Router) {
			r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
				_, hasDeadline := req.Context().Deadline()
				if hasDeadline {
					w.WriteHeader(http.StatusTeapot)
					return
				}
				w.WriteHeader(http.StatusOK)
			})
		}),
	)

	limited := httptest.NewRecorder()
	router.ServeHTTP(limited, httptest.NewRequest(http.MethodGet, "/api/v1/admin/slow", nil))
	require.Equal(t, http.StatusTeapot, limited.Code)

	streaming := httptest.NewRequest(http.MethodGet, "/api/v1/admin/slow", nil)
	streaming.Header.Set("Accept", "text/event-stream")
	unlimited := httptest.NewRecorder()
	router.ServeHTTP(unlimited, streaming)
	require.Equal(t, http.StatusOK, unlimited.Code)
}
