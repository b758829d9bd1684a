package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
)

// createTestImage creates an in-memory test image
func createTestImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 60, G: 120, B: 180, A: 255})
		}
	}

	var buf bytes.Buffer
	var filename string

	switch format {
	case "png":
		png.Encode(&buf, img)
		filename = "test.png"
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		filename = "test.jpg"
	}

	return buf.Bytes(), filename
}

// memoryAssetRepo is an in-memory storage.AssetRepository for tests
type memoryAssetRepo struct {
	objects map[string][]byte
}

func newMemoryAssetRepo() *memoryAssetRepo {
	return &memoryAssetRepo{objects: make(map[string][]byte)}
}

func (m *memoryAssetRepo) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.objects[objectPath] = buf
	return objectPath, nil
}

func (m *memoryAssetRepo) Delete(ctx context.Context, objectPath string) error {
	delete(m.objects, objectPath)
	return nil
}

func (m *memoryAssetRepo) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://assets.test/" + objectPath, nil
}

func TestValidateImage_ValidJPEG(t *testing.T) {
	svc := NewImageService(nil)
	data, filename := createTestImage(100, 100, "jpeg")

	if err := svc.ValidateImage(data, filename); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateImage_ValidPNG(t *testing.T) {
	svc := NewImageService(nil)
	data, filename := createTestImage(100, 100, "png")

	if err := svc.ValidateImage(data, filename); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateImage_TooLarge(t *testing.T) {
	svc := NewImageService(nil)
	data := make([]byte, MaxImageSize+1)

	if err := svc.ValidateImage(data, "test.jpg"); err != ErrImageTooLarge {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestValidateImage_InvalidFormat(t *testing.T) {
	svc := NewImageService(nil)
	data, _ := createTestImage(100, 100, "jpeg")

	if err := svc.ValidateImage(data, "test.gif"); err != ErrInvalidFormat {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestValidateImage_TooSmall(t *testing.T) {
	svc := NewImageService(nil)
	data, filename := createTestImage(20, 20, "jpeg")

	if err := svc.ValidateImage(data, filename); err != ErrImageTooSmall {
		t.Errorf("expected ErrImageTooSmall, got %v", err)
	}
}

func TestProcessAndUpload_StoresAllVariants(t *testing.T) {
	repo := newMemoryAssetRepo()
	svc := NewImageService(repo)
	data, filename := createTestImage(1600, 900, "jpeg")

	meta, err := svc.ProcessAndUpload(context.Background(), uuid.New(), uuid.New(), data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.objects) != 3 {
		t.Errorf("expected 3 stored variants, got %d", len(repo.objects))
	}
	for _, path := range []string{meta.ThumbnailURL, meta.DisplayURL, meta.OriginalURL} {
		if _, ok := repo.objects[path]; !ok {
			t.Errorf("expected object at %q", path)
		}
	}
}

func TestProcessAndUpload_StorageNotConfigured(t *testing.T) {
	svc := NewImageService(nil)
	data, filename := createTestImage(100, 100, "jpeg")

	if _, err := svc.ProcessAndUpload(context.Background(), uuid.New(), uuid.New(), data, filename); err != ErrImageStorageNotConfigured {
		t.Errorf("expected ErrImageStorageNotConfigured, got %v", err)
	}
}

func TestDeleteAllVariants(t *testing.T) {
	repo := newMemoryAssetRepo()
	svc := NewImageService(repo)
	data, filename := createTestImage(400, 400, "jpeg")

	meta, err := svc.ProcessAndUpload(context.Background(), uuid.New(), uuid.New(), data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.DeleteAllVariants(context.Background(), meta.DisplayURL); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.objects) != 0 {
		t.Errorf("expected all variants deleted, got %d left", len(repo.objects))
	}
}
