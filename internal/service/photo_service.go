package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/storage"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// PhotoUpload is raw evidence photo content as received from a client.
type PhotoUpload struct {
	FileName string
	Data     []byte
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// PhotoService validates evidence photos and writes them to the blob store.
type PhotoService struct {
	store    storage.BlobStore
	maxBytes int64
	logger   *zap.Logger
}

// NewPhotoService constructs the service.
func NewPhotoService(store storage.BlobStore, maxBytes int64, logger *zap.Logger) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{store: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the largest accepted photo.
func (p *PhotoService) MaxBytes() int64 {
	return p.maxBytes
}

// Store validates the upload and writes it. parcelRef may be empty when the
// parcel does not exist yet.
func (p *PhotoService) Store(ctx context.Context, parcelRef string, purpose storage.Purpose, upload PhotoUpload) (storage.Stored, error) {
	if len(upload.Data) == 0 {
		return storage.Stored{}, apperrors.NewValidationError("photo is empty", nil)
	}
	if p.maxBytes > 0 && int64(len(upload.Data)) > p.maxBytes {
		return storage.Stored{}, apperrors.NewValidationError("photo is too large",
			map[string]any{"max_bytes": p.maxBytes})
	}

	contentType := http.DetectContentType(upload.Data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return storage.Stored{}, apperrors.NewValidationError("photo must be an image",
			map[string]any{"content_type": contentType})
	}

	stored, err := p.store.Put(ctx, storage.Object{
		Key:         storage.NewKey(parcelRef, purpose, ext),
		ContentType: contentType,
		Data:        upload.Data,
	})
	if err != nil {
		return storage.Stored{}, apperrors.NewStorageFailure("failed to store photo", err)
	}
	return stored, nil
}

// Discard removes a blob that no record ended up referencing.
func (p *PhotoService) Discard(ctx context.Context, stored storage.Stored) {
	if stored.Key == "" {
		return
	}
	if err := p.store.Delete(ctx, stored.Key); err != nil {
		p.logger.Warn("failed to discard orphaned photo", zap.String("key", stored.Key), zap.Error(err))
	}
}

// DecodeDataURL parses "data:image/...;base64,<payload>" as sent by the
// camera capture screens. A bare base64 string is accepted too.
func DecodeDataURL(value string) (PhotoUpload, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return PhotoUpload{}, apperrors.NewValidationError("photo is empty", nil)
	}
	payload := value
	if strings.HasPrefix(value, "data:") {
		header, data, found := strings.Cut(value, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return PhotoUpload{}, apperrors.NewValidationError("photo must be a base64 data url", nil)
		}
		payload = data
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return PhotoUpload{}, apperrors.NewValidationError("photo is not valid base64", nil)
	}
	return PhotoUpload{Data: data}, nil
}
