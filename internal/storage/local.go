package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// localBackend stores files on the local filesystem. The server itself is the
// upload endpoint, so the upload and retrieval targets are identical.
type localBackend struct {
	root          string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocal creates a local filesystem backend. The storage root is created
// once here, not on each call.
func NewLocal(root, publicBaseURL string, logger *zap.Logger) (*localBackend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &localBackend{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// ReserveLocation generates a unique file name; no file is created yet
func (b *localBackend) ReserveLocation(ctx context.Context, originalFileName, contentType string) (Location, error) {
	fileName := GenerateFileName(originalFileName)
	url := b.publicBaseURL + "/" + fileName
	return Location{FileName: fileName, UploadURL: url, FileURL: url}, nil
}

// Save writes the contents of r under fileName and returns the byte count
func (b *localBackend) Save(ctx context.Context, fileName, contentType string, r io.Reader) (int64, error) {
	path := b.path(fileName)
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		// Cleanup: a partial file must not be served later
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}

// DeleteFile removes a stored file. Missing files and I/O failures both yield
// false; only the latter is logged.
func (b *localBackend) DeleteFile(ctx context.Context, fileName string) bool {
	path := b.path(fileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	if err := os.Remove(path); err != nil {
		b.logger.Warn("failed to delete stored file", zap.String("file", fileName), zap.Error(err))
		return false
	}
	return true
}

// Inspect reports size and retrieval URL for a stored file, nil if absent
func (b *localBackend) Inspect(ctx context.Context, fileName string) (*FileInfo, error) {
	info, err := os.Stat(b.path(fileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &FileInfo{
		Size: info.Size(),
		URL:  b.publicBaseURL + "/" + fileName,
	}, nil
}

// path maps a file name to its on-disk location. Base strips any path
// components a caller might smuggle in.
func (b *localBackend) path(fileName string) string {
	return filepath.Join(b.root, filepath.Base(fileName))
}
