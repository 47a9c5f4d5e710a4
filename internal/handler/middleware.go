package handler

import (
	"context"
	"net/http"
	"time"

	"doc-converter/internal/domain"
)

// SessionLoader resolves the session a request carries.
type SessionLoader interface {
	Load(r *http.Request) (*domain.Session, error)
}

// SessionMiddleware guards routes that need a logged-in user.
type SessionMiddleware struct {
	sessions SessionLoader
	logger   domain.Logger
}

func NewSessionMiddleware(sessions SessionLoader, logger domain.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, logger: logger}
}

// RequireAPI rejects anonymous requests with a 401 JSON body.
func (m *SessionMiddleware) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.load(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, withSession(r, sess))
	})
}

// RequirePage redirects anonymous browsers to the login page.
func (m *SessionMiddleware) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.load(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, withSession(r, sess))
	})
}

func (m *SessionMiddleware) load(r *http.Request) (*domain.Session, bool) {
	sess, err := m.sessions.Load(r)
	if err != nil {
		m.logger.Debug("Session rejected", "path", r.URL.Path, "error", err)
		return nil, false
	}
	return sess, true
}

func withSession(r *http.Request, sess *domain.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
