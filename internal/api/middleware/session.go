package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionExtractor pulls the conversation session id off the request so
// downstream handlers and the Telemetry middleware can tag the request
// without re-parsing it. The id itself is optional: /api/update-canvas's
// body may carry session_id instead (a brand-new conversation has none
// yet), in which case handlers mint one and this middleware has nothing
// to find. Checks, in order: X-Session-Id header, then session_id query
// parameter.
func SessionExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get("X-Session-Id"))
		if sessionID == "" {
			sessionID = strings.TrimSpace(r.URL.Query().Get("session_id"))
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID retrieves the session id extracted from the request, or ""
// if none was present.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}
