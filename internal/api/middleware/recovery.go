package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kiranshivaraju/projectlens/internal/api/response"
)

// Recovery turns a handler panic into a 500 envelope. Pipeline runs
// recover their own dimension panics, so this only guards the HTTP layer.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			attrs := []any{
				"panic", p,
				"stack", string(debug.Stack()),
				"method", r.Method,
				"path", r.URL.Path,
			}
			if prefix := heldPrefix(r); prefix != "" {
				attrs = append(attrs, "token_prefix", prefix)
			}
			slog.Error("panic recovered", attrs...)
			response.Error(w, http.StatusInternalServerError,
				response.CodeInternal, "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
