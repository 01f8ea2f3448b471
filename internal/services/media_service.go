package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/models"
	"github.com/carvault/backend/internal/storage"
)

// MediaRepository defines the interface for media metadata data access
type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	GetByID(ctx context.Context, id string) (*models.Media, error)
	ListByCar(ctx context.Context, carID string) ([]models.Media, error)
	List(ctx context.Context, mediaType models.MediaType, limit, offset int) ([]models.Media, int64, error)
	ConfirmUpload(ctx context.Context, id string, fileSize int64) error
	DeleteByID(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.MediaStats, error)
	Clear(ctx context.Context) error
}

// CarExistenceChecker is the read-only gate media and remark operations use to
// verify the referenced car exists
type CarExistenceChecker interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// MediaUpload carries everything the client declares about one new attachment
type MediaUpload struct {
	CarID      string
	FileName   string
	Type       string
	Category   string
	Duration   int
	Resolution string
	UploadedBy string
}

// MediaService handles business logic for media operations
type MediaService struct {
	mediaRepo MediaRepository
	cars      CarExistenceChecker
	storage   storage.Backend
	logger    *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(mediaRepo MediaRepository, cars CarExistenceChecker, backend storage.Backend, logger *zap.Logger) *MediaService {
	return &MediaService{
		mediaRepo: mediaRepo,
		cars:      cars,
		storage:   backend,
		logger:    logger,
	}
}

// GenerateUploadURL reserves a storage location for a client-side upload and
// records the media as UPLOADING with size zero. The returned upload URL is
// where the client must put the bytes; the record flips to READY only on a
// later ConfirmUpload.
func (s *MediaService) GenerateUploadURL(ctx context.Context, upload MediaUpload) (*models.Media, string, error) {
	if err := s.gateCar(ctx, upload.CarID); err != nil {
		return nil, "", err
	}
	if !models.IsValidMediaType(upload.Type) {
		return nil, "", fmt.Errorf("%w: %q", models.ErrInvalidMediaType, upload.Type)
	}

	location, err := s.storage.ReserveLocation(ctx, upload.FileName, MimeTypeFromFileName(upload.FileName))
	if err != nil {
		return nil, "", fmt.Errorf("failed to reserve upload location: %w", err)
	}

	media := s.newMedia(upload, location)

	if err := s.mediaRepo.Create(ctx, media); err != nil {
		return nil, "", fmt.Errorf("failed to create media record: %w", err)
	}

	return media, location.UploadURL, nil
}

// Upload stores the bytes server-side and records the media as READY in one
// call. Used when the client cannot upload to storage directly.
func (s *MediaService) Upload(ctx context.Context, upload MediaUpload, r io.Reader) (*models.Media, error) {
	if err := s.gateCar(ctx, upload.CarID); err != nil {
		return nil, err
	}
	if !models.IsValidMediaType(upload.Type) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidMediaType, upload.Type)
	}

	contentType := MimeTypeFromFileName(upload.FileName)

	location, err := s.storage.ReserveLocation(ctx, upload.FileName, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve upload location: %w", err)
	}

	size, err := s.storage.Save(ctx, location.FileName, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	media := s.newMedia(upload, location)
	media.FileSize = size
	media.Status = models.MediaStatusReady

	if err := s.mediaRepo.Create(ctx, media); err != nil {
		// Cleanup: delete the stored file if the record cannot be created
		s.storage.DeleteFile(ctx, location.FileName)
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	return media, nil
}

// ConfirmUpload records the actual uploaded size and flips the media to READY.
// Confirming an already-READY record applies the new size; the last confirm
// wins.
func (s *MediaService) ConfirmUpload(ctx context.Context, id string, fileSize int64) (*models.Media, error) {
	if err := s.mediaRepo.ConfirmUpload(ctx, id, fileSize); err != nil {
		return nil, err
	}
	return s.mediaRepo.GetByID(ctx, id)
}

// GetByID retrieves a single media record
func (s *MediaService) GetByID(ctx context.Context, id string) (*models.Media, error) {
	return s.mediaRepo.GetByID(ctx, id)
}

// ListByCar retrieves all media attached to a car. The car must exist; a car
// with no media yields an empty slice, not nil.
func (s *MediaService) ListByCar(ctx context.Context, carID string) ([]models.Media, error) {
	if err := s.gateCar(ctx, carID); err != nil {
		return nil, err
	}

	media, err := s.mediaRepo.ListByCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = []models.Media{}
	}
	return media, nil
}

// List retrieves one page of media with an optional type filter
func (s *MediaService) List(ctx context.Context, mediaType string, page, limit int) ([]models.Media, int64, error) {
	if mediaType != "" && !models.IsValidMediaType(mediaType) {
		return nil, 0, fmt.Errorf("%w: %q", models.ErrInvalidMediaType, mediaType)
	}
	page, limit = models.NormalizePaging(page, limit)

	media, total, err := s.mediaRepo.List(ctx, models.MediaType(mediaType), limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	if media == nil {
		media = []models.Media{}
	}
	return media, total, nil
}

// Remove deletes a media record and its stored file. The file deletion is
// best-effort: a missing or undeletable file is logged and never blocks the
// metadata deletion.
func (s *MediaService) Remove(ctx context.Context, id string) (*models.Media, error) {
	media, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The record's file_name keeps the client's original name; the stored
	// file's name is the last segment of the retrieval URL
	storedName := filepath.Base(strings.TrimRight(media.URL, "/"))

	if !s.storage.DeleteFile(ctx, storedName) {
		s.logger.Warn("stored file not deleted, removing record anyway",
			zap.String("mediaId", id),
			zap.String("file", storedName))
	}

	if err := s.mediaRepo.DeleteByID(ctx, id); err != nil {
		return nil, err
	}
	return media, nil
}

// Stats aggregates media statistics
func (s *MediaService) Stats(ctx context.Context) (*models.MediaStats, error) {
	return s.mediaRepo.Stats(ctx)
}

// Clear removes all media records. Test support only; stored files are left in
// place.
func (s *MediaService) Clear(ctx context.Context) error {
	return s.mediaRepo.Clear(ctx)
}

func (s *MediaService) gateCar(ctx context.Context, carID string) error {
	exists, err := s.cars.ExistsByID(ctx, carID)
	if err != nil {
		return fmt.Errorf("failed to check car existence: %w", err)
	}
	if !exists {
		return models.ErrCarNotFound
	}
	return nil
}

func (s *MediaService) newMedia(upload MediaUpload, location storage.Location) *models.Media {
	return &models.Media{
		ID:         uuid.New().String(),
		CarID:      upload.CarID,
		Type:       models.MediaType(upload.Type),
		Category:   upload.Category,
		URL:        location.FileURL,
		FileName:   upload.FileName,
		FileSize:   0,
		MimeType:   MimeTypeFromFileName(upload.FileName),
		Duration:   upload.Duration,
		Resolution: upload.Resolution,
		UploadedBy: upload.UploadedBy,
		Status:     models.MediaStatusUploading,
		UploadedAt: time.Now().UTC(),
	}
}

// mimeTypes maps known file extensions to MIME types
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MimeTypeFromFileName infers the MIME type from the file extension, falling
// back to application/octet-stream for unknown extensions
func MimeTypeFromFileName(fileName string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return "application/octet-stream"
}
