package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
)

// Server exposes the HTTP transport for the analytics application.
type Server struct {
	handler http.Handler
}

// NewServer constructs an HTTP server that forwards requests to the application service.
func NewServer(service domain.AnalyticsService, logger *infra.Logger) *Server {
	router := chi.NewRouter()

	router.Use(correlationMiddleware)
	router.Use(infra.HTTPMiddleware(func(r *http.Request) string {
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				return pattern
			}
		}
		return r.URL.Path
	}))

	h := &handler{service: service, logger: logger}
	registerRoutes(router, h)

	return &Server{handler: router}
}

// Router returns the configured HTTP handler for reuse in tests or external HTTP servers.
func (s *Server) Router() http.Handler {
	return s.handler
}

// ServeHTTP allows Server to satisfy the http.Handler interface directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// correlationMiddleware tags every request with a correlation id, taken from
// the X-Request-ID header when the caller supplies one.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(infra.WithCorrelationID(r.Context(), id)))
	})
}
