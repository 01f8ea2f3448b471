package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/middleware"
	"github.com/carvault/backend/internal/models"
	"github.com/carvault/backend/internal/services"
)

// MediaServicer defines the interface for media service operations
type MediaServicer interface {
	GenerateUploadURL(ctx context.Context, upload services.MediaUpload) (*models.Media, string, error)
	Upload(ctx context.Context, upload services.MediaUpload, r io.Reader) (*models.Media, error)
	ConfirmUpload(ctx context.Context, id string, fileSize int64) (*models.Media, error)
	GetByID(ctx context.Context, id string) (*models.Media, error)
	ListByCar(ctx context.Context, carID string) ([]models.Media, error)
	List(ctx context.Context, mediaType string, page, limit int) ([]models.Media, int64, error)
	Remove(ctx context.Context, id string) (*models.Media, error)
	Stats(ctx context.Context) (*models.MediaStats, error)
}

// MediaHandler handles media-related HTTP requests
type MediaHandler struct {
	BaseHandler
	mediaService MediaServicer
	authMw       func(http.Handler) http.Handler
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService MediaServicer, logger *zap.Logger, authMw func(http.Handler) http.Handler) *MediaHandler {
	return &MediaHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		mediaService: mediaService,
		authMw:       authMw,
	}
}

// RegisterRoutes registers all media handler routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/media", func(r chi.Router) {
		r.Use(h.authMw)
		r.Post("/upload-url", h.GenerateUploadURL)
		r.Post("/upload", h.Upload)
		r.Post("/{id}/confirm", h.ConfirmUpload)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/car/{carId}", h.ListByCar)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// uploadURLRequest is the payload for reserving an upload location
type uploadURLRequest struct {
	CarID      string `json:"carId"`
	FileName   string `json:"fileName"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	Duration   int    `json:"duration"`
	Resolution string `json:"resolution"`
}

// uploadURLResponse pairs the created record with its upload target
type uploadURLResponse struct {
	Media     *models.Media `json:"media"`
	UploadURL string        `json:"uploadUrl"`
}

// GenerateUploadURL handles POST /media/upload-url
// @Summary Reserve an upload location
// @Description Create an UPLOADING media record and return the URL to upload the file to
// @Tags media
// @Accept json
// @Produce json
// @Param request body uploadURLRequest true "Upload reservation"
// @Success 201 {object} uploadURLResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Car not found"
// @Failure 501 {object} map[string]string "Storage backend not implemented"
// @Router /media/upload-url [post]
func (h *MediaHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CarID == "" || req.FileName == "" || req.Type == "" {
		h.RespondError(w, http.StatusBadRequest, "carId, fileName and type are required")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())

	media, uploadURL, err := h.mediaService.GenerateUploadURL(r.Context(), services.MediaUpload{
		CarID:      req.CarID,
		FileName:   req.FileName,
		Type:       req.Type,
		Category:   req.Category,
		Duration:   req.Duration,
		Resolution: req.Resolution,
		UploadedBy: userID,
	})
	if err != nil {
		h.RespondDomainError(w, err, "failed to reserve upload location")
		return
	}

	h.RespondJSON(w, http.StatusCreated, uploadURLResponse{Media: media, UploadURL: uploadURL})
}

// Upload handles POST /media/upload
// @Summary Upload a file directly
// @Description Accept a multipart upload, store the file and create a READY media record
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param carId formData string true "Car ID"
// @Param type formData string true "Media type (IMAGE, VIDEO or DOCUMENT)"
// @Param category formData string false "Category"
// @Param duration formData int false "Duration in seconds, for videos"
// @Param resolution formData string false "Resolution, for videos"
// @Param file formData file true "File content"
// @Success 201 {object} models.Media
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Car not found"
// @Router /media/upload [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// 32 MiB held in memory, the rest spills to disk
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	carID := r.FormValue("carId")
	mediaType := r.FormValue("type")
	if carID == "" || mediaType == "" {
		h.RespondError(w, http.StatusBadRequest, "carId and type are required")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	duration, _ := strconv.Atoi(r.FormValue("duration"))

	media, err := h.mediaService.Upload(r.Context(), services.MediaUpload{
		CarID:      carID,
		FileName:   header.Filename,
		Type:       mediaType,
		Category:   r.FormValue("category"),
		Duration:   duration,
		Resolution: r.FormValue("resolution"),
		UploadedBy: userID,
	}, file)
	if err != nil {
		h.RespondDomainError(w, err, "failed to upload file")
		return
	}

	h.RespondJSON(w, http.StatusCreated, media)
}

// confirmUploadRequest is the payload declaring the uploaded size
type confirmUploadRequest struct {
	FileSize int64 `json:"fileSize"`
}

// ConfirmUpload handles POST /media/{id}/confirm
// @Summary Confirm a client-side upload
// @Description Record the uploaded file size and flip the media record to READY
// @Tags media
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param request body confirmUploadRequest true "Uploaded size"
// @Success 200 {object} models.Media
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Media not found"
// @Router /media/{id}/confirm [post]
func (h *MediaHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req confirmUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileSize < 0 {
		h.RespondError(w, http.StatusBadRequest, "fileSize must not be negative")
		return
	}

	media, err := h.mediaService.ConfirmUpload(r.Context(), id, req.FileSize)
	if err != nil {
		h.RespondDomainError(w, err, "failed to confirm upload")
		return
	}

	h.RespondJSON(w, http.StatusOK, media)
}

// Get handles GET /media/{id}
// @Summary Get a media record
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} models.Media
// @Failure 404 {object} map[string]string "Media not found"
// @Router /media/{id} [get]
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	media, err := h.mediaService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondDomainError(w, err, "failed to get media")
		return
	}

	h.RespondJSON(w, http.StatusOK, media)
}

// ListByCar handles GET /media/car/{carId}
// @Summary List media attached to a car
// @Tags media
// @Produce json
// @Param carId path string true "Car ID"
// @Success 200 {array} models.Media
// @Failure 404 {object} map[string]string "Car not found"
// @Router /media/car/{carId} [get]
func (h *MediaHandler) ListByCar(w http.ResponseWriter, r *http.Request) {
	carID := chi.URLParam(r, "carId")

	media, err := h.mediaService.ListByCar(r.Context(), carID)
	if err != nil {
		h.RespondDomainError(w, err, "failed to list media")
		return
	}

	h.RespondJSON(w, http.StatusOK, media)
}

// List handles GET /media
// @Summary List media records
// @Tags media
// @Produce json
// @Param page query int false "Page number, 1-based"
// @Param limit query int false "Page size"
// @Param type query string false "Media type filter"
// @Success 200 {object} PagedResponse
// @Failure 400 {object} map[string]string "Invalid type filter"
// @Router /media [get]
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, limit = models.NormalizePaging(page, limit)

	media, total, err := h.mediaService.List(r.Context(), r.URL.Query().Get("type"), page, limit)
	if err != nil {
		h.RespondDomainError(w, err, "failed to list media")
		return
	}

	h.RespondJSON(w, http.StatusOK, PagedResponse{Data: media, Total: total, Page: page, Limit: limit})
}

// Delete handles DELETE /media/{id}
// @Summary Delete a media record and its stored file
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} models.Media "Deleted record"
// @Failure 404 {object} map[string]string "Media not found"
// @Router /media/{id} [delete]
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	media, err := h.mediaService.Remove(r.Context(), id)
	if err != nil {
		h.RespondDomainError(w, err, "failed to delete media")
		return
	}

	h.RespondJSON(w, http.StatusOK, media)
}

// Stats handles GET /media/stats
// @Summary Media statistics
// @Tags media
// @Produce json
// @Success 200 {object} models.MediaStats
// @Router /media/stats [get]
func (h *MediaHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.mediaService.Stats(r.Context())
	if err != nil {
		h.RespondDomainError(w, err, "failed to get media stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
