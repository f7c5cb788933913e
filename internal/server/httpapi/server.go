// Package httpapi is the form-encoded HTTP surface of the index server.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/metrics"
	"github.com/sampottinger/kipling-package-index/internal/server/services"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	// maxFormBytes bounds request bodies; metadata forms are small.
	maxFormBytes = 1 << 20
)

type Server struct {
	address  string
	packages *services.PackageService
	users    *services.UserService
	logger   logging.Logger
	metrics  *metrics.Recorder
	gatherer prometheus.Gatherer
}

// NewServer wires the handlers. gatherer backs GET /metrics and may be nil,
// in which case the route is not registered.
func NewServer(address string, l logging.Logger, ps *services.PackageService, us *services.UserService,
	rec *metrics.Recorder, gatherer prometheus.Gatherer) *Server {
	return &Server{
		address:  address,
		packages: ps,
		users:    us,
		logger:   l.With("module", "http_server"),
		metrics:  rec,
		gatherer: gatherer,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /packages", s.handleCreate)
	s.route(mux, "GET /package/{name}", s.handleRead)
	s.route(mux, "PUT /package/{name}", s.handleUpdate)
	s.route(mux, "DELETE /package/{name}", s.handleDelete)
	s.route(mux, "POST /package/{name}/delete", s.handleDelete)
	s.route(mux, "POST /users", s.handleRegister)
	s.route(mux, "PUT /user/{username}", s.handleChangePassword)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	h = rescueing(h, s.logger)
	h = loggingMiddleware(h, s.logger)
	h = tracing(h)
	return h
}

// route registers h under pattern and counts its responses.
func (s *Server) route(mux *http.ServeMux, pattern string, h func(http.ResponseWriter, *http.Request) error) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		if err := h(sw, r); err != nil && !services.IsDomainError(err) {
			s.logger.Error(r.Context(), "request failed",
				"route", pattern, "request_id", RequestID(r.Context()), "error", err)
		}

		s.metrics.ObserveRequest(pattern, sw.status, time.Since(start).Seconds())
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
