package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3Config struct {
	// Bucket to upload media to. Required.
	Bucket string

	// Base URL media is served from, e.g. a CDN or the bucket website
	// endpoint. If empty the virtual-hosted bucket URL is used.
	PublicBaseURL string

	Region string
}

// S3Store uploads user media to Amazon S3 (or compatible APIs).
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

func NewS3Store(client *s3.Client, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
	}, nil
}

func (s *S3Store) UploadFile(ctx context.Context, localPath string, keyPrefix string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %s: %w", localPath, err)
	}
	defer f.Close() // nolint:errcheck

	ext := filepath.Ext(localPath)
	key := strings.Trim(keyPrefix, "/") + "/" + uuid.NewString() + ext

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	return s.baseURL + "/" + key, nil
}

var _ MediaStore = (*S3Store)(nil)
