package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateFileName builds a unique storage file name from the current time, a
// random token and the original file's extension. The original base name never
// appears in storage paths. Collision probability over concurrent calls is
// treated as negligible; there is no shared counter.
func GenerateFileName(originalFileName string) string {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), token, ext)
}

// countingReader wraps a reader and tracks the total number of bytes read
type countingReader struct {
	r    io.Reader
	size int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.size += int64(n)
	return n, err
}
