package storage

import (
	"context"
	"io"
	"time"
)

// AssetRepository defines the interface for page asset storage operations
type AssetRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
