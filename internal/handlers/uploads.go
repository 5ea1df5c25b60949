package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mpetrov/streamtube/internal/logger"
)

const defaultMaxUploadSize = 5 << 20 // 5MB per file, matches the media host limit

type UploadConfig struct {
	// Directory for spooling uploads before they go to the media host
	TempDir string

	// Upper bound for a request with file uploads
	MaxUploadSize int64
}

func (c UploadConfig) maxSize() int64 {
	if c.MaxUploadSize > 0 {
		return c.MaxUploadSize
	}
	return defaultMaxUploadSize
}

// saveUpload spools the named multipart file into the temp dir and returns
// its path. ok is false when the field is absent from the form.
func saveUpload(r *http.Request, field string, cfg UploadConfig) (path string, ok bool, err error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error while reading form file %q. Err: %w", field, err)
	}
	defer file.Close() // nolint:errcheck

	path = filepath.Join(cfg.TempDir, uuid.NewString()+filepath.Ext(header.Filename))

	dst, err := os.Create(path)
	if err != nil {
		return "", false, fmt.Errorf("error while creating temp file. Err: %w", err)
	}

	_, err = io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return path, false, fmt.Errorf("error while spooling upload. Err: %w", err)
	}

	return path, true, nil
}

// removeTemp is best-effort cleanup of spooled uploads. Failures are logged
// and never block the response.
func removeTemp(l logger.Logger, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil {
			l.Warn("can't remove temp upload", "path", path, "error", err.Error())
		}
	}
}
