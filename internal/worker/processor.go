// Package worker renders thumbnail renditions for stored school photos.
// Thumbnails are derived data: a worker failure never affects submissions.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	thumbWidth  = 300
	thumbHeight = 200

	// ThumbSuffix is appended to the source object key.
	ThumbSuffix = "_thumb"
)

// ObjectStore is the slice of the object-store client the processor needs.
type ObjectStore interface {
	Stat(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
}

type Processor struct {
	store ObjectStore
	log   *zap.SugaredLogger
}

func NewProcessor(store ObjectStore, log *zap.SugaredLogger) *Processor {
	return &Processor{store: store, log: log}
}

// RenderThumbnail produces a fill-cropped thumbnail next to the source
// object. Content-addressed keys make this idempotent: if the thumbnail
// already exists the task is a no-op, so redelivered or duplicate tasks are
// harmless.
func (p *Processor) RenderThumbnail(ctx context.Context, objectKey string) error {
	thumbKey := objectKey + ThumbSuffix

	if _, err := p.store.Stat(ctx, thumbKey); err == nil {
		p.log.Infow("thumbnail already exists, skipping", "key", thumbKey)
		return nil
	}

	obj, err := p.store.Get(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("failed to download source image: %w", err)
	}
	defer obj.Close()

	img, err := imaging.Decode(obj)
	if err != nil {
		return fmt.Errorf("failed to decode source image: %w", err)
	}

	thumb := imaging.Fill(img, thumbWidth, thumbHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	metadata := map[string]string{
		"width":  strconv.Itoa(thumbWidth),
		"height": strconv.Itoa(thumbHeight),
		"source": objectKey,
	}
	if err := p.store.Put(ctx, thumbKey, buf.Bytes(), "image/jpeg", metadata); err != nil {
		return fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	p.log.Infow("thumbnail rendered", "key", thumbKey, "size", buf.Len())
	return nil
}
