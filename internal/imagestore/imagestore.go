// Package imagestore deduplicates school photos by content: the object key is
// derived from a digest of the raw upload bytes, so identical files always
// resolve to the same stored object.
package imagestore

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"school-directory/internal/models"
)

const (
	// MaxImageSize is the largest accepted upload, 5 MiB.
	MaxImageSize = 5 << 20

	keyPrefix = "img_"

	maxWidth  = 800
	maxHeight = 600

	jpegQuality = 80
)

// Backend is the object store the image store runs against.
type Backend interface {
	// Stat returns the user metadata of the object at key, or an error if
	// the object cannot be found.
	Stat(ctx context.Context, key string) (map[string]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	PublicURL(key string) string
}

type Store struct {
	backend Backend
	log     *zap.SugaredLogger
}

func NewStore(backend Backend, log *zap.SugaredLogger) *Store {
	return &Store{backend: backend, log: log}
}

// Key derives the object key for the given raw bytes. Identical bytes always
// map to the identical key.
func Key(data []byte) string {
	return fmt.Sprintf("%s%x", keyPrefix, md5.Sum(data))
}

// Store uploads an image unless an object with the same content already
// exists, in which case the existing descriptor is returned untouched.
//
// A failed existence lookup is treated as "not present" and falls through to
// the upload path: a false negative only costs a redundant upload of the same
// key, never data loss.
func (s *Store) Store(ctx context.Context, data []byte, contentType string) (models.StoredImage, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return models.StoredImage{}, &models.ValidationError{Message: "only image files are allowed"}
	}
	if len(data) > MaxImageSize {
		return models.StoredImage{}, &models.ValidationError{Message: "file size must be less than 5MB"}
	}

	key := Key(data)

	meta, err := s.backend.Stat(ctx, key)
	if err == nil {
		s.log.Infow("image already exists, using existing copy", "key", key)
		return models.StoredImage{
			URL:         s.backend.PublicURL(key),
			PublicID:    key,
			Width:       atoiOrZero(meta["width"]),
			Height:      atoiOrZero(meta["height"]),
			IsDuplicate: true,
		}, nil
	}
	s.log.Debugw("image not found, proceeding with upload", "key", key, "error", err)

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return models.StoredImage{}, &models.ValidationError{Message: "file is not a valid image"}
	}

	// Fixed transformation policy: bound dimensions, normalize to JPEG.
	img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return models.StoredImage{}, &models.UploadError{Err: fmt.Errorf("encode image: %w", err)}
	}

	metadata := map[string]string{
		"width":  strconv.Itoa(width),
		"height": strconv.Itoa(height),
	}
	if err := s.backend.Put(ctx, key, buf.Bytes(), "image/jpeg", metadata); err != nil {
		return models.StoredImage{}, &models.UploadError{Err: err}
	}

	s.log.Infow("image uploaded", "key", key, "width", width, "height", height, "size", buf.Len())
	return models.StoredImage{
		URL:         s.backend.PublicURL(key),
		PublicID:    key,
		Width:       width,
		Height:      height,
		IsDuplicate: false,
	}, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
