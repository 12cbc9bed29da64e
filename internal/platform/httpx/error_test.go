package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestWriteErrorFlattensDetails(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	fields := map[string]string{"name": "required"}
	apiErr := NewError("validation_failed", "bad\ninput", http.StatusUnprocessableEntity).
		WithFields(fields).
		WithDetails(map[string]any{"variant_id": "v1", "status": 999})
	fields["name"] = "mutated"

	rec := httptest.NewRecorder()
	WriteError(ctx, rec, apiErr)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "bad input" || body["request_id"] != "req-1" || body["variant_id"] != "v1" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("details must not override status, got %v", body["status"])
	}
	if got := body["fields"].(map[string]any)["name"]; got != "required" {
		t.Fatalf("fields should be copied, got %v", got)
	}
	if _, ok := body["trace_id"]; ok {
		t.Fatalf("trace_id should be omitted without trace info")
	}
}

func TestNewErrorDefaultsStatus(t *testing.T) {
	err := NewError("boom", "failed", 0)
	if err.Status != http.StatusInternalServerError || err.Error() != "boom: failed" {
		t.Fatalf("unexpected error %+v", err)
	}
}
