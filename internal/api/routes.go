// Package api exposes the editor coordinator over HTTP and websockets.
package api

import (
	"net/http"

	"termblock/internal/logging"
)

type Options struct {
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
}

func RegisterRoutes(mux *http.ServeMux, service EditorService, opts Options) {
	logger := opts.Logger.Component("api")
	rest := &RestHandler{
		Service: service,
		Logger:  logger,
	}
	wrap := func(handler http.Handler) http.Handler {
		return loggingMiddleware(logger, handler)
	}

	mux.Handle("/ws/editor", wrap(securityHeadersMiddleware(cacheControlNoStore, &EditorHandler{
		Service:        service,
		Logger:         logger,
		AuthToken:      opts.AuthToken,
		AllowedOrigins: opts.AllowedOrigins,
	})))
	mux.Handle("/ws/events", wrap(securityHeadersMiddleware(cacheControlNoStore, &EventsHandler{
		Service:        service,
		Logger:         logger,
		AuthToken:      opts.AuthToken,
		AllowedOrigins: opts.AllowedOrigins,
	})))

	mux.Handle("/api/edit", wrap(restHandler(opts, logger, rest.handleEdit)))
	mux.Handle("/api/edit/close", wrap(restHandler(opts, logger, rest.handleEditClose)))
	mux.Handle("/api/logs", wrap(restHandler(opts, logger, rest.handleLogs)))
	mux.Handle("/api/", securityHeadersMiddleware(cacheControlNoStore, http.NotFoundHandler()))
}
