package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanko-field/catalog-console/internal/platform/requestctx"
)

func TestRequestLoggerRecordsRouteAndStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := chi.NewRouter()
	router.Use(InjectLoggerMiddleware(zap.New(core)), TraceMiddleware("hf-dev"), RequestLoggerMiddleware())
	router.Get("/products/{productID}", func(w http.ResponseWriter, r *http.Request) {
		requestctx.Logger(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/products/p-1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Trace-Id"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected propagated trace id, got %q", got)
	}

	inside := logs.FilterMessage("inside handler").All()
	if len(inside) != 1 || inside[0].ContextMap()["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected handler logger scoped to request, got %+v", inside)
	}
	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(completed))
	}
	entry := completed[0]
	if entry.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for 404, got %s", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["route"] != "/products/{productID}" || fields["status"] != int64(http.StatusNotFound) {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if fields["logging.googleapis.com/trace"] != "projects/hf-dev/traces/4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected trace resource, got %v", fields["logging.googleapis.com/trace"])
	}
}

func TestRecoveryMiddlewareWritesJSONError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)
	handler := InjectLoggerMiddleware(logger)(RecoveryMiddleware(nil)(RequestLoggerMiddleware()(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal_server_error" {
		t.Fatalf("unexpected body %v", body)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 || logs.FilterMessage("request completed").Len() != 1 {
		t.Fatalf("expected panic and completion logs, got %+v", logs.All())
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) || !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info level")
	}
}
