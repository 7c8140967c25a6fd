package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/recoverykit/journey-engine/pkg/handler"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HTTPServer serves the JSON API.
type HTTPServer struct {
	server  *http.Server
	port    int
	handler *handler.Handler
	checker HealthCheck
}

// NewHTTPServer creates a new HTTP server instance.
func NewHTTPServer(port int, h *handler.Handler, checker HealthCheck) *HTTPServer {
	return &HTTPServer{
		port:    port,
		handler: h,
		checker: checker,
	}
}

// Setup builds the router.
//
// ============================================================
// DEVELOPER: HTTP routes
// ============================================================
// Public operations are mounted under /api/v1 by handler.Routes.
// Cross-cutting middleware (request IDs, panics, tracing) is
// added here so handlers stay focused on the engine calls.
// ============================================================
func (s *HTTPServer) Setup() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           NewRouter(s.handler, s.checker),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// NewRouter returns the chi router for the API.
func NewRouter(h *handler.Handler, checker HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(extractTraceContext)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Check(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", h.Routes)

	return r
}

// extractTraceContext continues a caller's trace so handler spans join it.
func extractTraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": chimw.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

// Start begins serving the API on the configured port.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("HTTP server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown waits for in-flight requests to finish.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("HTTP server stopped")
	return nil
}
