package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/services"
	"github.com/carvault/backend/internal/storage"
)

// UploadHandler is the transfer channel for the local storage backend: clients
// PUT bytes to the reserved upload URL and GET them back from the same URL.
// Remote backends issue their own upload targets and never hit these routes.
type UploadHandler struct {
	BaseHandler
	storage storage.Backend
	root    string
	guardMw func(http.Handler) http.Handler
}

// NewUploadHandler creates a new upload handler serving files under root.
// guardMw protects the write path (API key check in production).
func NewUploadHandler(backend storage.Backend, root string, logger *zap.Logger, guardMw func(http.Handler) http.Handler) *UploadHandler {
	return &UploadHandler{
		BaseHandler: BaseHandler{Logger: logger},
		storage:     backend,
		root:        root,
		guardMw:     guardMw,
	}
}

// RegisterRoutes registers all upload handler routes
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Route("/uploads", func(r chi.Router) {
		r.With(h.guardMw).Put("/{fileName}", h.Put)
		r.Get("/{fileName}", h.Get)
	})
}

// Put handles PUT /uploads/{fileName}
// @Summary Upload file bytes to a reserved location
// @Tags uploads
// @Accept octet-stream
// @Produce json
// @Param fileName path string true "Reserved file name"
// @Success 200 {object} map[string]int64
// @Failure 500 {object} map[string]string "Storage failure"
// @Router /uploads/{fileName} [put]
func (h *UploadHandler) Put(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = services.MimeTypeFromFileName(fileName)
	}

	size, err := h.storage.Save(r.Context(), fileName, contentType, r.Body)
	if err != nil {
		h.RespondDomainError(w, err, "failed to store file")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int64{"size": size})
}

// Get handles GET /uploads/{fileName}
// @Summary Download a stored file
// @Tags uploads
// @Produce octet-stream
// @Param fileName path string true "File name"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string "File not found"
// @Router /uploads/{fileName} [get]
func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	// Base strips any path components a caller might smuggle in
	fileName := filepath.Base(chi.URLParam(r, "fileName"))
	path := filepath.Join(h.root, fileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", services.MimeTypeFromFileName(fileName))
	http.ServeFile(w, r, path)
}
