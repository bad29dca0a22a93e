package pets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pet-service/internal/middleware"
	"pet-service/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/petstore/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc, log))
		pr.Get("/", listPetsHandler(svc, log))
		pr.Options("/", middleware.PreflightAck("CORS preflight for pets"))

		pr.Get("/{petID}", getPetHandler(svc, log))
		pr.Put("/{petID}", updatePetHandler(svc, log))
		pr.Delete("/{petID}", deletePetHandler(svc, log))
		pr.Options("/{petID}", middleware.PreflightAck("CORS preflight for pet"))
	})
}

// errorResponse es el cuerpo de todos los errores de la API.
type errorResponse struct {
	Detail string            `json:"detail" example:"Pet not found"`
	Errors map[string]string `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message" example:"Pet 1 deleted successfully"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Registra una mascota. El servidor asigna id, created_at y updated_at.
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body PetCreate true "Datos de la mascota (todos obligatorios)"
// @Success 201 {object} PetResponse
// @Failure 413 {object} errorResponse "cuerpo > 1MB"
// @Failure 422 {object} errorResponse "validación"
// @Failure 500 {object} errorResponse "internal error"
// @Router /petstore/pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := DecodePetCreate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		p, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Description Lista mascotas ordenadas por id. Paginación simple por offset.
// @Tags pets
// @Produce json
// @Param skip query int false "Registros a saltar (>= 0)" default(0)
// @Param limit query int false "Máximo de registros (>= 0)" default(100)
// @Success 200 {array} PetResponse
// @Failure 422 {object} errorResponse "skip/limit inválidos"
// @Failure 500 {object} errorResponse "internal error"
// @Router /petstore/pets [get]
func listPetsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		limit, err := queryInt(r, "limit", DefaultListLimit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		items, err := svc.List(r.Context(), skip, limit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]PetResponse, 0, len(items))
		for _, p := range items {
			out = append(out, ToPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Obtener mascota
// @Tags pets
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Success 200 {object} PetResponse
// @Failure 404 {object} errorResponse "Pet not found"
// @Failure 422 {object} errorResponse "id inválido"
// @Router /petstore/pets/{petID} [get]
func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := petID(r)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description Actualización parcial: solo se aplican los campos enviados. updated_at siempre se refresca.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param payload body PetUpdate true "Campos a modificar"
// @Success 200 {object} PetResponse
// @Failure 404 {object} errorResponse "Pet not found"
// @Failure 413 {object} errorResponse "cuerpo > 1MB"
// @Failure 422 {object} errorResponse "validación"
// @Router /petstore/pets/{petID} [put]
func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := petID(r)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		in, err := DecodePetUpdate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, ToPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary Eliminar mascota
// @Description Borrado físico, sin papelera.
// @Tags pets
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse "Pet not found"
// @Failure 422 {object} errorResponse "id inválido"
// @Router /petstore/pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := petID(r)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{
			Message: fmt.Sprintf("Pet %d deleted successfully", id),
		})
	}
}

func petID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "petID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError("pet_id", "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewValidationError(key, "must be a valid integer")
	}
	if n < 0 {
		return 0, NewValidationError(key, "must be greater than or equal to 0")
	}
	return n, nil
}

// writeError traduce errores de dominio a respuestas. Lo inesperado se loguea
// con el request id y sale como 500 genérico.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "validation failed", Errors: verr.Fields})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: ErrInvalidInput.Error()})
	case errors.Is(err, ErrBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "Request body too large"})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Pet not found"})
	default:
		log.Error("request failed", map[string]any{
			"request_id": middleware.GetRequestID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"error":      err,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
