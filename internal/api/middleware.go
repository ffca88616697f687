package api

import (
	"net/http"

	"termblock/internal/logging"
)

type apiHandler func(http.ResponseWriter, *http.Request) *apiError

const cacheControlNoStore = "no-store, must-revalidate"

func setSecurityHeaders(w http.ResponseWriter, cacheControl string) {
	headers := w.Header()
	headers.Set("X-Content-Type-Options", "nosniff")
	if cacheControl != "" {
		headers.Set("Cache-Control", cacheControl)
	}
}

func securityHeadersMiddleware(cacheControl string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, cacheControl)
		next.ServeHTTP(w, r)
	})
}

func authMiddleware(token string, next apiHandler) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) *apiError {
		if !validateToken(r, token) {
			return &apiError{Status: http.StatusUnauthorized, Message: "unauthorized"}
		}
		return next(w, r)
	}
}

// originMiddleware rejects browser requests from foreign pages, which could
// otherwise drive the editor through simple cross-site posts.
func originMiddleware(allowed []string, next apiHandler) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) *apiError {
		if !isOriginAllowed(r, allowed) {
			return &apiError{Status: http.StatusForbidden, Message: "origin not allowed"}
		}
		return next(w, r)
	}
}

func jsonErrorMiddleware(logger *logging.Logger, next apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			if logger != nil && err.Status >= http.StatusInternalServerError {
				logger.Warn("api request failed", map[string]string{
					"path":    r.URL.Path,
					"status":  http.StatusText(err.Status),
					"message": err.Message,
				})
			}
			writeJSONError(w, err)
		}
	}
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Debug("api request", map[string]string{
				"http.route": r.URL.Path,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
		}
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allow string) *apiError {
	w.Header().Set("Allow", allow)
	return &apiError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"}
}

func restHandler(opts Options, logger *logging.Logger, handler apiHandler) http.Handler {
	guarded := originMiddleware(opts.AllowedOrigins, authMiddleware(opts.AuthToken, handler))
	return securityHeadersMiddleware(cacheControlNoStore, jsonErrorMiddleware(logger, guarded))
}
