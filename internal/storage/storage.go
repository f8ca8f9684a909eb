// Package storage persists parcel evidence photos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Purpose tells which side of the parcel lifecycle a photo documents.
type Purpose string

const (
	PurposeIntake     Purpose = "in"
	PurposeCollection Purpose = "out"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Object is a blob to be written.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Stored identifies a written blob.
type Stored struct {
	Key string
	URL string
}

// BlobStore writes and removes blobs. Implementations never inspect content.
type BlobStore interface {
	Put(ctx context.Context, obj Object) (Stored, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// NewKey builds parcels/<ref>/<purpose>-<uuid><ext>. ref is the parcel id, or
// "temp" for photos uploaded before the parcel exists.
func NewKey(parcelRef string, purpose Purpose, ext string) string {
	if parcelRef == "" {
		parcelRef = "temp"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join("parcels", parcelRef, fmt.Sprintf("%s-%s%s", purpose, uuid.NewString(), ext))
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
