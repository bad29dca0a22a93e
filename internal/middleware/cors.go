package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/cors"
)

type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS aplica la política estática de orígenes/métodos/headers.
// OptionsPassthrough deja que los OPTIONS lleguen a las rutas de preflight
// registradas, que responden con su propio acuse.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     opts.AllowedOrigins,
		AllowedMethods:     opts.AllowedMethods,
		AllowedHeaders:     opts.AllowedHeaders,
		AllowCredentials:   false,
		MaxAge:             opts.MaxAge,
		OptionsPassthrough: true,
	})
}

// PreflightAck responde 200 a un OPTIONS con un mensaje de acuse.
func PreflightAck(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
	}
}
