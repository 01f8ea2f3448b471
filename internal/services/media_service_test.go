package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/models"
	"github.com/carvault/backend/internal/storage"
)

// mockMediaRepository is a mock implementation of MediaRepository
type mockMediaRepository struct {
	media      *models.Media
	list       []models.Media
	total      int64
	stats      *models.MediaStats
	err        error
	confirmErr error
	deleteErr  error

	created       *models.Media
	confirmedID   string
	confirmedSize int64
	deletedID     string
	clearCalled   bool
}

func (m *mockMediaRepository) Create(ctx context.Context, media *models.Media) error {
	if m.err != nil {
		return m.err
	}
	m.created = media
	return nil
}

func (m *mockMediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.media == nil {
		return nil, models.ErrMediaNotFound
	}
	return m.media, nil
}

func (m *mockMediaRepository) ListByCar(ctx context.Context, carID string) ([]models.Media, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockMediaRepository) List(ctx context.Context, mediaType models.MediaType, limit, offset int) ([]models.Media, int64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.list, m.total, nil
}

func (m *mockMediaRepository) ConfirmUpload(ctx context.Context, id string, fileSize int64) error {
	if m.confirmErr != nil {
		return m.confirmErr
	}
	m.confirmedID = id
	m.confirmedSize = fileSize
	if m.media != nil {
		m.media.FileSize = fileSize
		m.media.Status = models.MediaStatusReady
	}
	return nil
}

func (m *mockMediaRepository) DeleteByID(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func (m *mockMediaRepository) Stats(ctx context.Context) (*models.MediaStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockMediaRepository) Clear(ctx context.Context) error {
	m.clearCalled = true
	return m.err
}

// mockCarChecker is a mock implementation of CarExistenceChecker
type mockCarChecker struct {
	exists bool
	err    error
}

func (m *mockCarChecker) ExistsByID(ctx context.Context, id string) (bool, error) {
	return m.exists, m.err
}

// mockBackend is a mock implementation of storage.Backend
type mockBackend struct {
	location   storage.Location
	reserveErr error
	saveSize   int64
	saveErr    error
	deleteOK   bool
	info       *storage.FileInfo
	inspectErr error

	savedName   string
	savedBytes  int64
	deletedName string
}

func (m *mockBackend) ReserveLocation(ctx context.Context, originalFileName, contentType string) (storage.Location, error) {
	if m.reserveErr != nil {
		return storage.Location{}, m.reserveErr
	}
	return m.location, nil
}

func (m *mockBackend) Save(ctx context.Context, fileName, contentType string, r io.Reader) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	n, _ := io.Copy(io.Discard, r)
	m.savedName = fileName
	m.savedBytes = n
	if m.saveSize != 0 {
		return m.saveSize, nil
	}
	return n, nil
}

func (m *mockBackend) DeleteFile(ctx context.Context, fileName string) bool {
	m.deletedName = fileName
	return m.deleteOK
}

func (m *mockBackend) Inspect(ctx context.Context, fileName string) (*storage.FileInfo, error) {
	if m.inspectErr != nil {
		return nil, m.inspectErr
	}
	return m.info, nil
}

func setupMediaService(repo *mockMediaRepository, cars *mockCarChecker, backend *mockBackend) *MediaService {
	return NewMediaService(repo, cars, backend, zap.NewNop())
}

func testLocation() storage.Location {
	return storage.Location{
		FileName:  "1710408600000-abc123def0.jpg",
		UploadURL: "http://localhost:8080/uploads/1710408600000-abc123def0.jpg",
		FileURL:   "http://localhost:8080/uploads/1710408600000-abc123def0.jpg",
	}
}

func TestMediaService_GenerateUploadURL(t *testing.T) {
	t.Run("creates uploading record with zero size", func(t *testing.T) {
		repo := &mockMediaRepository{}
		backend := &mockBackend{location: testLocation()}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, backend)

		media, uploadURL, err := svc.GenerateUploadURL(context.Background(), MediaUpload{
			CarID:      "car-1",
			FileName:   "engine photo.JPG",
			Type:       "IMAGE",
			Category:   "engine",
			UploadedBy: "user-1",
		})

		require.NoError(t, err)
		require.NotNil(t, media)
		assert.Equal(t, "http://localhost:8080/uploads/1710408600000-abc123def0.jpg", uploadURL)
		assert.Equal(t, models.MediaStatusUploading, media.Status)
		assert.Zero(t, media.FileSize)
		assert.Equal(t, "car-1", media.CarID)
		assert.Equal(t, models.MediaTypeImage, media.Type)
		assert.Equal(t, "engine photo.JPG", media.FileName)
		assert.Equal(t, "http://localhost:8080/uploads/1710408600000-abc123def0.jpg", media.URL)
		assert.Equal(t, "image/jpeg", media.MimeType)
		assert.NotEmpty(t, media.ID)
		require.NotNil(t, repo.created)
		assert.Equal(t, media.ID, repo.created.ID)
	})

	t.Run("nonexistent car is rejected before any storage work", func(t *testing.T) {
		repo := &mockMediaRepository{}
		backend := &mockBackend{location: testLocation()}
		svc := setupMediaService(repo, &mockCarChecker{exists: false}, backend)

		media, _, err := svc.GenerateUploadURL(context.Background(), MediaUpload{
			CarID:    "nonexistent-car",
			FileName: "a.jpg",
			Type:     "IMAGE",
		})

		assert.ErrorIs(t, err, models.ErrCarNotFound)
		assert.Nil(t, media)
		assert.Nil(t, repo.created)
	})

	t.Run("invalid media type is rejected", func(t *testing.T) {
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: true}, &mockBackend{})

		media, _, err := svc.GenerateUploadURL(context.Background(), MediaUpload{
			CarID:    "car-1",
			FileName: "a.jpg",
			Type:     "AUDIO",
		})

		assert.ErrorIs(t, err, models.ErrInvalidMediaType)
		assert.Nil(t, media)
	})

	t.Run("unimplemented backend error propagates", func(t *testing.T) {
		backend := &mockBackend{reserveErr: fmt.Errorf("provider %q: %w", "gcs", storage.ErrNotImplemented)}
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: true}, backend)

		_, _, err := svc.GenerateUploadURL(context.Background(), MediaUpload{
			CarID:    "car-1",
			FileName: "a.jpg",
			Type:     "IMAGE",
		})

		assert.ErrorIs(t, err, storage.ErrNotImplemented)
	})

	t.Run("record create failure propagates", func(t *testing.T) {
		repo := &mockMediaRepository{err: errors.New("database error")}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{location: testLocation()})

		_, _, err := svc.GenerateUploadURL(context.Background(), MediaUpload{
			CarID:    "car-1",
			FileName: "a.jpg",
			Type:     "IMAGE",
		})

		assert.Error(t, err)
	})
}

func TestMediaService_Upload(t *testing.T) {
	t.Run("stores bytes and records ready media", func(t *testing.T) {
		repo := &mockMediaRepository{}
		backend := &mockBackend{location: testLocation()}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, backend)

		media, err := svc.Upload(context.Background(), MediaUpload{
			CarID:      "car-1",
			FileName:   "engine.jpg",
			Type:       "IMAGE",
			UploadedBy: "user-1",
		}, strings.NewReader("fake image bytes"))

		require.NoError(t, err)
		require.NotNil(t, media)
		assert.Equal(t, models.MediaStatusReady, media.Status)
		assert.Equal(t, int64(len("fake image bytes")), media.FileSize)
		assert.Equal(t, "engine.jpg", media.FileName)
		assert.Equal(t, "1710408600000-abc123def0.jpg", backend.savedName)
		require.NotNil(t, repo.created)
		assert.Equal(t, models.MediaStatusReady, repo.created.Status)
	})

	t.Run("stored file is cleaned up when the record cannot be created", func(t *testing.T) {
		repo := &mockMediaRepository{err: errors.New("database error")}
		backend := &mockBackend{location: testLocation(), deleteOK: true}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, backend)

		media, err := svc.Upload(context.Background(), MediaUpload{
			CarID:    "car-1",
			FileName: "engine.jpg",
			Type:     "IMAGE",
		}, strings.NewReader("bytes"))

		assert.Error(t, err)
		assert.Nil(t, media)
		assert.Equal(t, "1710408600000-abc123def0.jpg", backend.deletedName)
	})

	t.Run("nonexistent car is rejected", func(t *testing.T) {
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: false}, &mockBackend{})

		media, err := svc.Upload(context.Background(), MediaUpload{
			CarID:    "nonexistent-car",
			FileName: "a.jpg",
			Type:     "IMAGE",
		}, strings.NewReader("bytes"))

		assert.ErrorIs(t, err, models.ErrCarNotFound)
		assert.Nil(t, media)
	})

	t.Run("save failure propagates", func(t *testing.T) {
		backend := &mockBackend{location: testLocation(), saveErr: errors.New("disk full")}
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: true}, backend)

		_, err := svc.Upload(context.Background(), MediaUpload{
			CarID:    "car-1",
			FileName: "a.jpg",
			Type:     "IMAGE",
		}, strings.NewReader("bytes"))

		assert.Error(t, err)
	})
}

func TestMediaService_ConfirmUpload(t *testing.T) {
	t.Run("flips record to ready with actual size", func(t *testing.T) {
		repo := &mockMediaRepository{
			media: &models.Media{
				ID:     "media-1",
				Status: models.MediaStatusUploading,
			},
		}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		media, err := svc.ConfirmUpload(context.Background(), "media-1", 4096)

		require.NoError(t, err)
		assert.Equal(t, "media-1", repo.confirmedID)
		assert.Equal(t, int64(4096), repo.confirmedSize)
		assert.Equal(t, models.MediaStatusReady, media.Status)
		assert.Equal(t, int64(4096), media.FileSize)
	})

	t.Run("confirming an already ready record applies the new size", func(t *testing.T) {
		repo := &mockMediaRepository{
			media: &models.Media{
				ID:       "media-1",
				FileSize: 4096,
				Status:   models.MediaStatusReady,
			},
		}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		media, err := svc.ConfirmUpload(context.Background(), "media-1", 8192)

		require.NoError(t, err)
		assert.Equal(t, int64(8192), media.FileSize)
		assert.Equal(t, models.MediaStatusReady, media.Status)
	})

	t.Run("nonexistent media", func(t *testing.T) {
		repo := &mockMediaRepository{confirmErr: models.ErrMediaNotFound}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		media, err := svc.ConfirmUpload(context.Background(), "nonexistent-id", 4096)

		assert.ErrorIs(t, err, models.ErrMediaNotFound)
		assert.Nil(t, media)
	})
}

func TestMediaService_ListByCar(t *testing.T) {
	t.Run("car with no media yields empty slice", func(t *testing.T) {
		repo := &mockMediaRepository{list: nil}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		media, err := svc.ListByCar(context.Background(), "car-1")

		require.NoError(t, err)
		assert.NotNil(t, media)
		assert.Empty(t, media)
	})

	t.Run("nonexistent car is rejected", func(t *testing.T) {
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: false}, &mockBackend{})

		media, err := svc.ListByCar(context.Background(), "nonexistent-car")

		assert.ErrorIs(t, err, models.ErrCarNotFound)
		assert.Nil(t, media)
	})

	t.Run("existence check failure propagates", func(t *testing.T) {
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{err: errors.New("database error")}, &mockBackend{})

		_, err := svc.ListByCar(context.Background(), "car-1")

		assert.Error(t, err)
	})
}

func TestMediaService_List(t *testing.T) {
	t.Run("normalizes paging and returns total", func(t *testing.T) {
		repo := &mockMediaRepository{
			list:  []models.Media{{ID: "media-1"}},
			total: 42,
		}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		media, total, err := svc.List(context.Background(), "", 0, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(42), total)
		assert.Len(t, media, 1)
	})

	t.Run("invalid type filter is rejected", func(t *testing.T) {
		svc := setupMediaService(&mockMediaRepository{}, &mockCarChecker{exists: true}, &mockBackend{})

		_, _, err := svc.List(context.Background(), "AUDIO", 1, 20)

		assert.ErrorIs(t, err, models.ErrInvalidMediaType)
	})
}

func TestMediaService_Remove(t *testing.T) {
	t.Run("deletes the stored file named by the url, not the original name", func(t *testing.T) {
		repo := &mockMediaRepository{
			media: &models.Media{
				ID:       "media-1",
				FileName: "front.jpg",
				URL:      "http://localhost:8080/uploads/1710408600000-abc123def0.jpg",
			},
		}
		backend := &mockBackend{deleteOK: true}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, backend)

		removed, err := svc.Remove(context.Background(), "media-1")

		require.NoError(t, err)
		assert.Equal(t, "media-1", removed.ID)
		assert.Equal(t, "1710408600000-abc123def0.jpg", backend.deletedName)
		assert.Equal(t, "media-1", repo.deletedID)
	})

	t.Run("missing stored file never blocks record deletion", func(t *testing.T) {
		repo := &mockMediaRepository{
			media: &models.Media{
				ID:       "media-1",
				FileName: "front.jpg",
				URL:      "http://localhost:8080/uploads/1710408600000-abc123def0.jpg",
			},
		}
		backend := &mockBackend{deleteOK: false}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, backend)

		removed, err := svc.Remove(context.Background(), "media-1")

		require.NoError(t, err)
		assert.Equal(t, "media-1", removed.ID)
		assert.Equal(t, "media-1", repo.deletedID)
	})

	t.Run("nonexistent media", func(t *testing.T) {
		repo := &mockMediaRepository{}
		svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

		_, err := svc.Remove(context.Background(), "nonexistent-id")

		assert.ErrorIs(t, err, models.ErrMediaNotFound)
		assert.Empty(t, repo.deletedID)
	})
}

func TestMediaService_Stats(t *testing.T) {
	repo := &mockMediaRepository{
		stats: &models.MediaStats{
			Total:     3,
			TotalSize: 7168,
			ByType: []models.MediaTypeCount{
				{Type: models.MediaTypeImage, Count: 2},
				{Type: models.MediaTypeVideo, Count: 1},
			},
		},
	}
	svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(7168), stats.TotalSize)
	assert.Len(t, stats.ByType, 2)
}

func TestMediaService_Clear(t *testing.T) {
	repo := &mockMediaRepository{}
	svc := setupMediaService(repo, &mockCarChecker{exists: true}, &mockBackend{})

	err := svc.Clear(context.Background())

	assert.NoError(t, err)
	assert.True(t, repo.clearCalled)
}

func TestMimeTypeFromFileName(t *testing.T) {
	tests := []struct {
		fileName string
		expected string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"diagram.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"shot.webp", "image/webp"},
		{"walkaround.mp4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"clip.MOV", "video/quicktime"},
		{"title.pdf", "application/pdf"},
		{"report.doc", "application/msword"},
		{"report.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.expected, MimeTypeFromFileName(tt.fileName))
		})
	}
}
