package middleware

import (
	"net/http"
	"runtime/debug"

	"pet-service/internal/platform/logger"
)

// Recover convierte un panic en 500 JSON y lo deja en el log.
// Cada request queda aislado: el proceso sigue vivo.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"request_id": GetRequestID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				})

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail":"Internal server error"}` + "\n"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
