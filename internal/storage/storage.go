package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"coffeespot/internal/config"
	"github.com/google/uuid"
)

// Storage holds uploaded images (product photos, profile pictures).
type Storage interface {
	// Put stores content under key and returns its public URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the Storage selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

// NewKey returns a unique object key under prefix keeping the file extension.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

// Upload is an incoming file to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
