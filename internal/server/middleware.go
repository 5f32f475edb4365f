package server

import (
	"context"
	"net/http"
	"time"

	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SessionCookie names the cookie carrying the quiz session ID.
const SessionCookie = "regresslab_session"

type ctxKey int

const sessionKey ctxKey = iota

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		})
	}
}

// sessions attaches a quiz session ID to every request. A new ID replaces a
// missing or malformed cookie, and the cookie is refreshed on each request.
func sessions(ttl time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil && quiz.ValidID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = quiz.NewID()
			}
			// Reissued on every request so MaxAge slides with activity.
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx := context.WithValue(r.Context(), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the session ID stored by the session middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
