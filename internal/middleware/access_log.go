package middleware

import (
	"net/http"
	"time"

	"pet-service/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog escribe una línea por request. /health va a debug para no ensuciar
// los logs con los probes del orquestador.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := map[string]any{
				"request_id": GetRequestID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         r.RemoteAddr,
			}

			switch {
			case r.URL.Path == "/health":
				log.Debug("http request", fields)
			case status >= http.StatusInternalServerError:
				log.Error("http request", fields)
			default:
				log.Info("http request", fields)
			}
		})
	}
}
