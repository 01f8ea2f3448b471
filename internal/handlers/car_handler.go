package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/middleware"
	"github.com/carvault/backend/internal/models"
)

// CarServicer defines the interface for car service operations
type CarServicer interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	GetByID(ctx context.Context, id string) (*models.Car, error)
	GetByVIN(ctx context.Context, vin string) (*models.Car, error)
	List(ctx context.Context, filter models.CarFilter) ([]models.Car, int64, error)
	Update(ctx context.Context, id string, car *models.Car) (*models.Car, error)
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DecodeVIN(ctx context.Context, vin string) (json.RawMessage, error)
	Stats(ctx context.Context) (*models.CarStats, error)
}

// CarHandler handles car-related HTTP requests
type CarHandler struct {
	BaseHandler
	carService CarServicer
	authMw     func(http.Handler) http.Handler
}

// NewCarHandler creates a new car handler
func NewCarHandler(carService CarServicer, logger *zap.Logger, authMw func(http.Handler) http.Handler) *CarHandler {
	return &CarHandler{
		BaseHandler: BaseHandler{Logger: logger},
		carService:  carService,
		authMw:      authMw,
	}
}

// RegisterRoutes registers all car handler routes
func (h *CarHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cars", func(r chi.Router) {
		r.Use(h.authMw)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/vin/{vin}", h.GetByVIN)
		r.Get("/vin/{vin}/decode", h.DecodeVIN)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/archive", h.Archive)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles POST /cars
// @Summary Register a new car
// @Description Create a car; its VIN is validated, normalized and decoded against the vehicle registry
// @Tags cars
// @Accept json
// @Produce json
// @Param request body models.Car true "Car data"
// @Success 201 {object} models.Car
// @Failure 400 {object} map[string]string "Invalid VIN or request"
// @Failure 409 {object} map[string]string "Duplicate VIN"
// @Router /cars [post]
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if car.VIN == "" || car.Make == "" || car.Model == "" || car.Year == 0 {
		h.RespondError(w, http.StatusBadRequest, "vin, make, model and year are required")
		return
	}

	if userID, ok := middleware.GetUserID(r.Context()); ok {
		car.CreatedBy = userID
	}

	created, err := h.carService.Create(r.Context(), &car)
	if err != nil {
		h.RespondDomainError(w, err, "failed to create car")
		return
	}

	h.RespondJSON(w, http.StatusCreated, created)
}

// Get handles GET /cars/{id}
// @Summary Get a car
// @Tags cars
// @Produce json
// @Param id path string true "Car ID"
// @Success 200 {object} models.Car
// @Failure 404 {object} map[string]string "Car not found"
// @Router /cars/{id} [get]
func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	car, err := h.carService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondDomainError(w, err, "failed to get car")
		return
	}

	h.RespondJSON(w, http.StatusOK, car)
}

// GetByVIN handles GET /cars/vin/{vin}
// @Summary Get a car by VIN
// @Tags cars
// @Produce json
// @Param vin path string true "VIN"
// @Success 200 {object} models.Car
// @Failure 404 {object} map[string]string "Car not found"
// @Router /cars/vin/{vin} [get]
func (h *CarHandler) GetByVIN(w http.ResponseWriter, r *http.Request) {
	vin := chi.URLParam(r, "vin")

	car, err := h.carService.GetByVIN(r.Context(), vin)
	if err != nil {
		h.RespondDomainError(w, err, "failed to get car")
		return
	}

	h.RespondJSON(w, http.StatusOK, car)
}

// DecodeVIN handles GET /cars/vin/{vin}/decode
// @Summary Decode a VIN
// @Description Decode a VIN against the vehicle registry without creating a car
// @Tags cars
// @Produce json
// @Param vin path string true "VIN"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid VIN"
// @Router /cars/vin/{vin}/decode [get]
func (h *CarHandler) DecodeVIN(w http.ResponseWriter, r *http.Request) {
	vin := chi.URLParam(r, "vin")

	data, err := h.carService.DecodeVIN(r.Context(), vin)
	if err != nil {
		h.RespondDomainError(w, err, "failed to decode vin")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// List handles GET /cars
// @Summary List active cars
// @Tags cars
// @Produce json
// @Param page query int false "Page number, 1-based"
// @Param limit query int false "Page size"
// @Param make query string false "Make filter"
// @Param condition query string false "Condition filter"
// @Success 200 {object} PagedResponse
// @Router /cars [get]
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, limit = models.NormalizePaging(page, limit)

	cars, total, err := h.carService.List(r.Context(), models.CarFilter{
		Make:      r.URL.Query().Get("make"),
		Condition: r.URL.Query().Get("condition"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		h.RespondDomainError(w, err, "failed to list cars")
		return
	}

	h.RespondJSON(w, http.StatusOK, PagedResponse{Data: cars, Total: total, Page: page, Limit: limit})
}

// Update handles PUT /cars/{id}
// @Summary Update a car
// @Description Apply a partial update; a changed VIN is re-validated and checked for conflicts
// @Tags cars
// @Accept json
// @Produce json
// @Param id path string true "Car ID"
// @Param request body models.Car true "Fields to update"
// @Success 200 {object} models.Car
// @Failure 400 {object} map[string]string "Invalid VIN"
// @Failure 404 {object} map[string]string "Car not found"
// @Failure 409 {object} map[string]string "Duplicate VIN"
// @Router /cars/{id} [put]
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.carService.Update(r.Context(), id, &car)
	if err != nil {
		h.RespondDomainError(w, err, "failed to update car")
		return
	}

	h.RespondJSON(w, http.StatusOK, updated)
}

// Archive handles POST /cars/{id}/archive
// @Summary Archive a car
// @Description Soft-delete a car; attached media and remarks are kept
// @Tags cars
// @Produce json
// @Param id path string true "Car ID"
// @Success 204 "No content"
// @Failure 404 {object} map[string]string "Car not found"
// @Router /cars/{id}/archive [post]
func (h *CarHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.carService.Archive(r.Context(), id); err != nil {
		h.RespondDomainError(w, err, "failed to archive car")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /cars/{id}
// @Summary Permanently delete a car
// @Tags cars
// @Produce json
// @Param id path string true "Car ID"
// @Success 204 "No content"
// @Failure 404 {object} map[string]string "Car not found"
// @Router /cars/{id} [delete]
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.carService.Delete(r.Context(), id); err != nil {
		h.RespondDomainError(w, err, "failed to delete car")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /cars/stats
// @Summary Car statistics
// @Tags cars
// @Produce json
// @Success 200 {object} models.CarStats
// @Router /cars/stats [get]
func (h *CarHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.carService.Stats(r.Context())
	if err != nil {
		h.RespondDomainError(w, err, "failed to get car stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
