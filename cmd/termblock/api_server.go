package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"termblock/internal/logging"
)

const (
	apiShutdownTimeout   = 5 * time.Second
	apiReadHeaderTimeout = 5 * time.Second
)

// apiServer owns the HTTP listener for the editor API.
type apiServer struct {
	server          *http.Server
	listener        net.Listener
	logger          *logging.Logger
	shutdownTimeout time.Duration
}

func newAPIServer(handler http.Handler, listener net.Listener, logger *logging.Logger) *apiServer {
	return &apiServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: apiReadHeaderTimeout,
		},
		listener:        listener,
		logger:          logger,
		shutdownTimeout: apiShutdownTimeout,
	}
}

// Run serves until stop is done or serving fails, then drains in-flight
// requests. A stop-initiated shutdown returns nil.
func (s *apiServer) Run(stop context.Context) error {
	served := make(chan error, 1)
	go func() {
		served <- s.server.Serve(s.listener)
	}()

	var serveErr error
	stopped := false
	select {
	case serveErr = <-served:
	case <-stop.Done():
		stopped = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("api server shutdown failed", map[string]string{
			"error": err.Error(),
		})
	}

	if stopped {
		select {
		case serveErr = <-served:
		case <-ctx.Done():
			s.logger.Warn("api server did not stop in time", map[string]string{
				"timeout": s.shutdownTimeout.String(),
			})
		}
	}
	if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	s.logger.Error("api server stopped", map[string]string{
		"addr":  s.listener.Addr().String(),
		"error": serveErr.Error(),
	})
	return serveErr
}
