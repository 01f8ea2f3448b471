package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// ErrNotImplemented is returned by every operation of a backend variant that is
// configured but has no working implementation. Callers must never fall back to
// another backend silently.
var ErrNotImplemented = errors.New("storage backend not implemented")

// Location is the transient pair of targets issued for one upload. For the
// local backend the upload and retrieval targets are the same URL; a remote
// object-storage backend issues a short-lived signed upload target distinct
// from the long-lived public retrieval target.
type Location struct {
	FileName  string `json:"fileName"`
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

// FileInfo describes a stored file, used for diagnostics
type FileInfo struct {
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Backend is the pluggable capability for reserving upload locations and
// managing stored bytes
type Backend interface {
	// ReserveLocation generates a collision-resistant unique file name
	// preserving the original extension and returns the locations to upload to
	// and retrieve from. Safe to call concurrently with no coordination.
	ReserveLocation(ctx context.Context, originalFileName, contentType string) (Location, error)

	// Save writes the full contents of r under fileName and returns the number
	// of bytes stored. Used by the server-mediated upload path.
	Save(ctx context.Context, fileName, contentType string, r io.Reader) (int64, error)

	// DeleteFile removes a stored file. A missing file is not an error and
	// returns false; I/O failures are logged and reported as false, never
	// raised.
	DeleteFile(ctx context.Context, fileName string) bool

	// Inspect reports size and retrieval target for a stored file, or nil if
	// the file is absent. Diagnostics only, not on the confirm path.
	Inspect(ctx context.Context, fileName string) (*FileInfo, error)
}

// Config selects and parameterizes a backend variant
type Config struct {
	Provider      string
	BasePath      string
	PublicBaseURL string
	S3Region      string
	S3Bucket      string
	PresignTTL    time.Duration
}

// New builds the configured backend variant. Unknown providers yield a backend
// whose every operation fails with ErrNotImplemented.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.BasePath, cfg.PublicBaseURL, logger)
	case "s3":
		return NewS3(ctx, cfg.S3Region, cfg.S3Bucket, cfg.PresignTTL, logger)
	default:
		logger.Warn("unknown storage provider configured", zap.String("provider", cfg.Provider))
		return &unimplementedBackend{provider: cfg.Provider}, nil
	}
}

// unimplementedBackend fails every operation with a clear signal
type unimplementedBackend struct {
	provider string
}

func (b *unimplementedBackend) ReserveLocation(ctx context.Context, originalFileName, contentType string) (Location, error) {
	return Location{}, fmt.Errorf("provider %q: %w", b.provider, ErrNotImplemented)
}

func (b *unimplementedBackend) Save(ctx context.Context, fileName, contentType string, r io.Reader) (int64, error) {
	return 0, fmt.Errorf("provider %q: %w", b.provider, ErrNotImplemented)
}

func (b *unimplementedBackend) DeleteFile(ctx context.Context, fileName string) bool {
	return false
}

func (b *unimplementedBackend) Inspect(ctx context.Context, fileName string) (*FileInfo, error) {
	return nil, fmt.Errorf("provider %q: %w", b.provider, ErrNotImplemented)
}
