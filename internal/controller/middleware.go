package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/syncwatch/server/pkg/ctxlogger"
	"github.com/syncwatch/server/pkg/rest"
)

const sessionIDHeader = "Sw-Session-Id"

func (c *controller) requestIDMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", uuid.NewString()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

// sessionMw resolves the caller's session identity from the session id
// header. The management surface trusts the host layer's session ids;
// authentication beyond that is out of scope.
func (c *controller) sessionMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(sessionIDHeader)
		if sessionID == "" {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "session id was not provided"})
			return
		}

		s, err := c.sessionRepo.GetSession(r.Context(), sessionID)
		if err != nil {
			c.logger.DebugContext(r.Context(), "failed to resolve session", "session_id", sessionID, "error", err)
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "unknown session"})
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, s)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("session_id", s.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
