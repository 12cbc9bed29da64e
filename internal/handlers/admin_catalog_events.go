package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/platform/httpx"
	"github.com/hanko-field/catalog-console/internal/platform/requestctx"
)

// mutationEvents streams status transitions for one entity as server-sent events.
// The current status is sent first so late subscribers never miss a terminal state.
func (h *AdminCatalogHandlers) mutationEvents(w http.ResponseWriter, r *http.Request) {
	key, ok := mutationKey(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("streaming_unsupported", "response writer cannot stream events", http.StatusInternalServerError))
		return
	}

	logger := requestctx.Logger(ctx)
	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("event stream keeps server write deadline", zap.Error(err))
	}

	events, cancel := h.coordinator.Subscribe(key)
	defer cancel()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	current := domain.StatusEvent{Key: key, Status: h.coordinator.Status(key)}
	if err := writeStatusEvent(w, current); err != nil {
		logger.Debug("event stream closed", zap.Error(err))
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-events:
			if !open {
				return
			}
			if err := writeStatusEvent(w, evt); err != nil {
				logger.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStatusEvent(w http.ResponseWriter, evt domain.StatusEvent) error {
	data, err := json.Marshal(newStatusEventResponse(evt))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
	return err
}
