package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/catalog-console/internal/platform/httpx"
)

// RouteRegistrar mounts a route group.
type RouteRegistrar func(r chi.Router)

// Option configures NewRouter.
type Option func(*routerBuilder)

const (
	apiPrefix         = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

type routerBuilder struct {
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	admin       RouteRegistrar
}

// NewRouter returns the console's HTTP surface: probes at the root and the admin catalog API under
// /api/v1/admin. Without WithAdminRoutes the admin group answers 501.
func NewRouter(opts ...Option) chi.Router {
	b := &routerBuilder{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	if b.health == nil {
		b.health = NewHealthHandlers()
	}
	return b.build()
}

func (b *routerBuilder) build() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	for _, mw := range b.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", b.health.Healthz)
	r.Get("/readyz", b.health.Readyz)
	r.Route(apiPrefix+"/admin", b.mountAdmin)
	return r
}

func (b *routerBuilder) mountAdmin(group chi.Router) {
	group.Use(middleware.Maybe(middleware.Timeout(b.timeout), notEventStream))
	if b.admin == nil {
		group.HandleFunc("/*", notImplemented)
		group.HandleFunc("/", notImplemented)
		return
	}
	b.admin(group)
}

func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *routerBuilder) {
		b.middlewares = append(b.middlewares, mw...)
	}
}

func WithHealthHandlers(h *HealthHandlers) Option {
	return func(b *routerBuilder) {
		b.health = h
	}
}

func WithAdminRoutes(reg RouteRegistrar) Option {
	return func(b *routerBuilder) {
		b.admin = reg
	}
}

// WithRequestTimeout sets the deadline for admin requests. Event streams are exempt.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(b *routerBuilder) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

func notEventStream(r *http.Request) bool {
	return !strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError(errorNotFoundCode, "no route for "+r.URL.Path, http.StatusNotFound))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	msg := "method " + r.Method + " not allowed on " + r.URL.Path
	httpx.WriteError(r.Context(), w, httpx.NewError("method_not_allowed", msg, http.StatusMethodNotAllowed))
}

func notImplemented(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("not_implemented", "admin routes not implemented", http.StatusNotImplemented))
}
