package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestServiceErrorClassification(t *testing.T) {
	cases := []struct {
		status      int
		notFound    bool
		conflict    bool
		unavailable bool
		rejected    bool
	}{
		{status: 0, unavailable: true},
		{status: http.StatusBadRequest, rejected: true},
		{status: http.StatusNotFound, notFound: true, rejected: true},
		{status: http.StatusConflict, conflict: true, rejected: true},
		{status: http.StatusUnprocessableEntity, rejected: true},
		{status: http.StatusTooManyRequests, unavailable: true},
		{status: http.StatusRequestTimeout, unavailable: true},
		{status: http.StatusInternalServerError, unavailable: true},
		{status: http.StatusServiceUnavailable, unavailable: true},
	}
	for _, tc := range cases {
		err := NewServiceError("op", tc.status, "", nil)
		if err.IsNotFound() != tc.notFound || err.IsConflict() != tc.conflict ||
			err.IsUnavailable() != tc.unavailable || err.IsRejected() != tc.rejected {
			t.Fatalf("status %d: unexpected classification %+v", tc.status, err)
		}
		if err.StatusCode() != tc.status {
			t.Fatalf("status %d: StatusCode returned %d", tc.status, err.StatusCode())
		}
	}
}

func TestServiceErrorMessage(t *testing.T) {
	err := NewServiceError("catalog.createCategory", http.StatusConflict, "name already used", nil)
	if got := err.Error(); got != "catalog.createCategory: 409 name already used" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := NewServiceError("", http.StatusNotFound, "", nil).Message; got != "Not Found" {
		t.Fatalf("expected status text default, got %q", got)
	}
}

func TestWrapTransportError(t *testing.T) {
	if WrapTransportError("op", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if err := WrapTransportError("op", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to pass through, got %v", err)
	}

	dial := errors.New("dial tcp: connection refused")
	err := WrapTransportError("catalog.listCategories", dial)
	repoErr, ok := AsRepositoryError(err)
	if !ok || !repoErr.IsUnavailable() {
		t.Fatalf("expected unavailable repository error, got %v", err)
	}
	if !errors.Is(err, dial) {
		t.Fatalf("expected wrapped cause to be preserved")
	}

	existing := NewServiceError("", http.StatusBadRequest, "bad", nil)
	wrapped := WrapTransportError("catalog.update", fmt.Errorf("decode: %w", existing))
	repoErr, ok = AsRepositoryError(wrapped)
	if !ok || !repoErr.IsRejected() || existing.Op != "catalog.update" {
		t.Fatalf("expected existing service error to be reused, got %v", wrapped)
	}
}
