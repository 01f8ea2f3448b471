package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/models"
	"github.com/carvault/backend/internal/services"
)

// mockMediaServicer records the arguments the handler forwards
type mockMediaServicer struct {
	media *models.Media
	list  []models.Media
	total int64
	stats *models.MediaStats
	err   error

	upload    services.MediaUpload
	listType  string
	listPage  int
	listLimit int
}

func (m *mockMediaServicer) GenerateUploadURL(ctx context.Context, upload services.MediaUpload) (*models.Media, string, error) {
	m.upload = upload
	return m.media, "http://localhost:8080/uploads/x.jpg", m.err
}

func (m *mockMediaServicer) Upload(ctx context.Context, upload services.MediaUpload, r io.Reader) (*models.Media, error) {
	m.upload = upload
	io.Copy(io.Discard, r)
	return m.media, m.err
}

func (m *mockMediaServicer) ConfirmUpload(ctx context.Context, id string, fileSize int64) (*models.Media, error) {
	return m.media, m.err
}

func (m *mockMediaServicer) GetByID(ctx context.Context, id string) (*models.Media, error) {
	return m.media, m.err
}

func (m *mockMediaServicer) ListByCar(ctx context.Context, carID string) ([]models.Media, error) {
	return m.list, m.err
}

func (m *mockMediaServicer) List(ctx context.Context, mediaType string, page, limit int) ([]models.Media, int64, error) {
	m.listType = mediaType
	m.listPage = page
	m.listLimit = limit
	return m.list, m.total, m.err
}

func (m *mockMediaServicer) Remove(ctx context.Context, id string) (*models.Media, error) {
	return m.media, m.err
}

func (m *mockMediaServicer) Stats(ctx context.Context) (*models.MediaStats, error) {
	return m.stats, m.err
}

func setupMediaHandlerRouter(svc *mockMediaServicer) chi.Router {
	passthrough := func(next http.Handler) http.Handler { return next }
	handler := NewMediaHandler(svc, zap.NewNop(), passthrough)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestMediaHandler_List(t *testing.T) {
	t.Run("oversized limit is clamped and the response reports the effective value", func(t *testing.T) {
		svc := &mockMediaServicer{list: []models.Media{}, total: 0}
		router := setupMediaHandlerRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/media?page=2&limit=500", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp PagedResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, models.DefaultPageSize, resp.Limit)
		assert.Equal(t, svc.listLimit, resp.Limit)
		assert.Equal(t, 2, resp.Page)
	})

	t.Run("missing paging params fall back to defaults", func(t *testing.T) {
		svc := &mockMediaServicer{list: []models.Media{}}
		router := setupMediaHandlerRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/media", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp PagedResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, models.DefaultPageSize, resp.Limit)
		assert.Equal(t, svc.listLimit, resp.Limit)
	})
}

func TestMediaHandler_Upload(t *testing.T) {
	buildForm := func(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		part, err := mw.CreateFormFile("file", "walkaround.mp4")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake video bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return body, mw.FormDataContentType()
	}

	t.Run("forwards video duration and resolution from the form", func(t *testing.T) {
		svc := &mockMediaServicer{media: &models.Media{ID: "media-1"}}
		router := setupMediaHandlerRouter(svc)

		body, contentType := buildForm(t, map[string]string{
			"carId":      "car-1",
			"type":       "VIDEO",
			"category":   "walkaround",
			"duration":   "42",
			"resolution": "1920x1080",
		})

		req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "car-1", svc.upload.CarID)
		assert.Equal(t, "walkaround.mp4", svc.upload.FileName)
		assert.Equal(t, 42, svc.upload.Duration)
		assert.Equal(t, "1920x1080", svc.upload.Resolution)
	})

	t.Run("missing required fields are rejected", func(t *testing.T) {
		svc := &mockMediaServicer{}
		router := setupMediaHandlerRouter(svc)

		body, contentType := buildForm(t, map[string]string{"category": "exterior"})

		req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
