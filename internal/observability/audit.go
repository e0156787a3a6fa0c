package observability

import (
	"log/slog"
	"net/http"
)

// Audit emits a structured security log line alongside the durable audit
// trail. The database row is the record; this is for operators.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}
