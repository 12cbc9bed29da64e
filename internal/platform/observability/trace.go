package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanko-field/catalog-console/internal/platform/requestctx"
)

const traceIDHeader = "X-Trace-Id"

var tracer = otel.Tracer("github.com/hanko-field/catalog-console/internal/platform/observability")

// TraceMiddleware extracts W3C trace context, starts a server span and stores trace metadata on the
// request context. The trace ID is echoed in X-Trace-Id.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+RouteLabel(r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.ServerAddress(r.Host),
				),
			)
			defer span.End()

			info := requestctx.TraceInfo{ProjectID: projectID}
			// A no-op tracer still carries an extracted remote parent.
			spanCtx := span.SpanContext()
			if !spanCtx.IsValid() {
				spanCtx = trace.SpanContextFromContext(ctx)
			}
			if spanCtx.IsValid() {
				info.TraceID = spanCtx.TraceID().String()
				info.SpanID = spanCtx.SpanID().String()
				info.Sampled = spanCtx.IsSampled()
				w.Header().Set(traceIDHeader, info.TraceID)
			}

			next.ServeHTTP(w, r.WithContext(requestctx.WithTrace(ctx, info)))
		})
	}
}
