// Package server exposes the registered tools over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Server wraps an http.Server with the tool API routes mounted.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// New builds a Server listening on addr.
func New(addr string, logger *logrus.Logger) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert/", s.handleConvert)
	mux.HandleFunc("/api/tools", s.handleTools)
	mux.HandleFunc("/ping", s.handlePing)

	handler := withHeaders(withGzip(cors.Default().Handler(mux)))
	handler = s.withRequestLog(handler)

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
