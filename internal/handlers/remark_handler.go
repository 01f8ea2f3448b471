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

// RemarkServicer defines the interface for remark service operations
type RemarkServicer interface {
	Create(ctx context.Context, remark *models.Remark) (*models.Remark, error)
	GetByID(ctx context.Context, id string) (*models.Remark, error)
	ListByCar(ctx context.Context, carID string) ([]models.Remark, error)
	List(ctx context.Context, filter models.RemarkFilter) ([]models.Remark, int64, error)
	Update(ctx context.Context, id string, remark *models.Remark) (*models.Remark, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.RemarkStats, error)
}

// RemarkHandler handles remark-related HTTP requests
type RemarkHandler struct {
	BaseHandler
	remarkService RemarkServicer
	authMw        func(http.Handler) http.Handler
}

// NewRemarkHandler creates a new remark handler
func NewRemarkHandler(remarkService RemarkServicer, logger *zap.Logger, authMw func(http.Handler) http.Handler) *RemarkHandler {
	return &RemarkHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		remarkService: remarkService,
		authMw:        authMw,
	}
}

// RegisterRoutes registers all remark handler routes
func (h *RemarkHandler) RegisterRoutes(r chi.Router) {
	r.Route("/remarks", func(r chi.Router) {
		r.Use(h.authMw)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/car/{carId}", h.ListByCar)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles POST /remarks
// @Summary Attach a remark to a car
// @Tags remarks
// @Accept json
// @Produce json
// @Param request body models.Remark true "Remark data"
// @Success 201 {object} models.Remark
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Car not found"
// @Router /remarks [post]
func (h *RemarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var remark models.Remark
	if err := json.NewDecoder(r.Body).Decode(&remark); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if remark.CarID == "" || remark.Text == "" {
		h.RespondError(w, http.StatusBadRequest, "carId and text are required")
		return
	}

	if userID, ok := middleware.GetUserID(r.Context()); ok {
		remark.CreatedBy = userID
	}

	created, err := h.remarkService.Create(r.Context(), &remark)
	if err != nil {
		h.RespondDomainError(w, err, "failed to create remark")
		return
	}

	h.RespondJSON(w, http.StatusCreated, created)
}

// Get handles GET /remarks/{id}
// @Summary Get a remark
// @Tags remarks
// @Produce json
// @Param id path string true "Remark ID"
// @Success 200 {object} models.Remark
// @Failure 404 {object} map[string]string "Remark not found"
// @Router /remarks/{id} [get]
func (h *RemarkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	remark, err := h.remarkService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondDomainError(w, err, "failed to get remark")
		return
	}

	h.RespondJSON(w, http.StatusOK, remark)
}

// ListByCar handles GET /remarks/car/{carId}
// @Summary List remarks attached to a car
// @Tags remarks
// @Produce json
// @Param carId path string true "Car ID"
// @Success 200 {array} models.Remark
// @Failure 404 {object} map[string]string "Car not found"
// @Router /remarks/car/{carId} [get]
func (h *RemarkHandler) ListByCar(w http.ResponseWriter, r *http.Request) {
	carID := chi.URLParam(r, "carId")

	remarks, err := h.remarkService.ListByCar(r.Context(), carID)
	if err != nil {
		h.RespondDomainError(w, err, "failed to list remarks")
		return
	}

	h.RespondJSON(w, http.StatusOK, remarks)
}

// List handles GET /remarks
// @Summary List remarks
// @Tags remarks
// @Produce json
// @Param page query int false "Page number, 1-based"
// @Param limit query int false "Page size"
// @Param type query string false "Type filter"
// @Param priority query string false "Priority filter"
// @Success 200 {object} PagedResponse
// @Router /remarks [get]
func (h *RemarkHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, limit = models.NormalizePaging(page, limit)

	remarks, total, err := h.remarkService.List(r.Context(), models.RemarkFilter{
		Type:     r.URL.Query().Get("type"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		h.RespondDomainError(w, err, "failed to list remarks")
		return
	}

	h.RespondJSON(w, http.StatusOK, PagedResponse{Data: remarks, Total: total, Page: page, Limit: limit})
}

// Update handles PUT /remarks/{id}
// @Summary Update a remark
// @Tags remarks
// @Accept json
// @Produce json
// @Param id path string true "Remark ID"
// @Param request body models.Remark true "Fields to update"
// @Success 200 {object} models.Remark
// @Failure 404 {object} map[string]string "Remark not found"
// @Router /remarks/{id} [put]
func (h *RemarkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var remark models.Remark
	if err := json.NewDecoder(r.Body).Decode(&remark); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if userID, ok := middleware.GetUserID(r.Context()); ok {
		remark.UpdatedBy = userID
	}

	updated, err := h.remarkService.Update(r.Context(), id, &remark)
	if err != nil {
		h.RespondDomainError(w, err, "failed to update remark")
		return
	}

	h.RespondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /remarks/{id}
// @Summary Delete a remark
// @Tags remarks
// @Produce json
// @Param id path string true "Remark ID"
// @Success 204 "No content"
// @Failure 404 {object} map[string]string "Remark not found"
// @Router /remarks/{id} [delete]
func (h *RemarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.remarkService.Delete(r.Context(), id); err != nil {
		h.RespondDomainError(w, err, "failed to delete remark")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /remarks/stats
// @Summary Remark statistics
// @Tags remarks
// @Produce json
// @Success 200 {object} models.RemarkStats
// @Router /remarks/stats [get]
func (h *RemarkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.remarkService.Stats(r.Context())
	if err != nil {
		h.RespondDomainError(w, err, "failed to get remark stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
