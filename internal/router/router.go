package router

import (
	"encoding/json"
	"net/http"

	_ "pet-service/docs"
	mem "pet-service/internal/adapters/storage/memory"
	"pet-service/internal/domain/pets"
	"pet-service/internal/middleware"
	"pet-service/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

const ServiceName = "pet-service"

var (
	defaultMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Requested-With"}
)

type Options struct {
	// Opcional: si no viene, repo in-memory.
	PetsRepo pets.Repository

	Logger logger.Logger

	// Orígenes CORS permitidos. Vacío = ningún origen cruzado.
	AllowedOrigins []string

	// RPS <= 0 desactiva el rate limit.
	RateLimit middleware.RateLimitOptions
}

type statusResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"pet-service"`
}

type bannerResponse struct {
	Message string `json:"message" example:"Pet Service is running"`
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	petRepo := opts.PetsRepo
	if petRepo == nil {
		petRepo = mem.NewPetRepo()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: defaultMethods,
		AllowedHeaders: defaultHeaders,
		MaxAge:         600,
	}))
	r.Use(middleware.RateLimit(opts.RateLimit))

	r.Get("/", rootHandler)
	r.Options("/", middleware.PreflightAck("CORS preflight for root"))
	r.Get("/health", healthHandler)
	r.Options("/health", middleware.PreflightAck("CORS preflight for health"))

	r.Get("/docs", http.RedirectHandler("/docs/index.html", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	petsSvc := pets.NewService(petRepo)
	pets.RegisterRoutes(r, petsSvc, log)

	return r
}

// rootHandler godoc
// @Summary Banner del servicio
// @Tags service
// @Produce json
// @Success 200 {object} bannerResponse
// @Router / [get]
func rootHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{Message: "Pet Service is running"})
}

// healthHandler godoc
// @Summary Liveness
// @Description No consulta la base: solo indica que el proceso responde.
// @Tags service
// @Produce json
// @Success 200 {object} statusResponse
// @Router /health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "healthy", Service: ServiceName})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
