package server

import (
	"context"
	"net/http"
	"time"
)

// Server wraps the HTTP server with fixed timeouts.
type Server struct {
	server *http.Server
}

// ListenAndServe blocks until the server stops. After Shutdown it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting active requests finish until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NewServer creates a server listening on address and serving router.
func NewServer(address string, router *ApiV1Router) *Server {
	s := Server{&http.Server{
		Addr:           address,
		Handler:        router.Mux(),
		ReadTimeout:    time.Second * 5,
		WriteTimeout:   time.Second * 15,
		MaxHeaderBytes: 1024 * 10,
	}}

	return &s
}
