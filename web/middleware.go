// ABOUTME: HTTP middleware for the local API
// ABOUTME: Request logging via zap and an origin allow-list for extension pages
package web

import (
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// allowOrigin matches origin against the configured patterns. A pattern is
// an exact origin or a path.Match glob such as chrome-extension://*.
func (s *Server) allowOrigin(r *http.Request, origin string) bool {
	for _, pattern := range s.allowedOrigins {
		if pattern == origin {
			return true
		}
		if ok, err := path.Match(pattern, origin); err == nil && ok {
			return true
		}
	}
	return false
}

// originGuard answers 403 to any request whose Origin is not allowed, before
// a handler runs. Requests without an Origin header (CLI, curl) pass.
func (s *Server) originGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !s.allowOrigin(r, origin) {
			s.logger.Warn("rejected cross-origin request",
				zap.String("origin", origin),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			httpError(w, http.StatusForbidden, "forbidden_origin", "origin %s is not allowed", origin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: s.allowOrigin,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:  []string{"Content-Type"},
		MaxAge:          300,
	})
}
