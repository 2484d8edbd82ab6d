package imagestore_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-directory/internal/imagestore"
	"school-directory/internal/models"
)

type storedObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

type fakeBackend struct {
	objects  map[string]storedObject
	puts     int
	statErr  error // forced stat failure when set
	statHits int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string]storedObject{}}
}

func (f *fakeBackend) Stat(_ context.Context, key string) (map[string]string, error) {
	f.statHits++
	if f.statErr != nil {
		return nil, f.statErr
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return obj.metadata, nil
}

func (f *fakeBackend) Put(_ context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	f.puts++
	f.objects[key] = storedObject{data: data, contentType: contentType, metadata: metadata}
	return nil
}

func (f *fakeBackend) PublicURL(key string) string {
	return "http://objects.test/school-images/" + key
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 30, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func newStore(backend imagestore.Backend) *imagestore.Store {
	return imagestore.NewStore(backend, zap.NewNop().Sugar())
}

func TestStoreUploadsNewImage(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)

	data := pngBytes(t, 1000, 800)
	img, err := store.Store(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.False(t, img.IsDuplicate)
	assert.Equal(t, imagestore.Key(data), img.PublicID)
	assert.Equal(t, backend.PublicURL(img.PublicID), img.URL)
	assert.Equal(t, 1, backend.puts)

	// 1000x800 bounded to 800x600 preserving aspect ratio.
	assert.Equal(t, 750, img.Width)
	assert.Equal(t, 600, img.Height)

	stored := backend.objects[img.PublicID]
	assert.Equal(t, "image/jpeg", stored.contentType)
	assert.Equal(t, "750", stored.metadata["width"])
	assert.Equal(t, "600", stored.metadata["height"])
}

func TestStoreDeduplicatesIdenticalBytes(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)
	data := pngBytes(t, 400, 300)

	first, err := store.Store(context.Background(), data, "image/png")
	require.NoError(t, err)
	require.False(t, first.IsDuplicate)

	second, err := store.Store(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.PublicID, second.PublicID)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
	assert.Equal(t, 1, backend.puts, "identical bytes must not create a second object")
	assert.Len(t, backend.objects, 1)
}

func TestStoreDistinctBytesDistinctKeys(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)

	a, err := store.Store(context.Background(), pngBytes(t, 10, 10), "image/png")
	require.NoError(t, err)
	b, err := store.Store(context.Background(), pngBytes(t, 20, 20), "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, a.PublicID, b.PublicID)
	assert.Len(t, backend.objects, 2)
}

func TestStoreRejectsNonImageType(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)

	_, err := store.Store(context.Background(), []byte("hello"), "text/plain")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "only image files are allowed", verr.Message)
	assert.Zero(t, backend.statHits, "rejected uploads must not reach the backend")
	assert.Zero(t, backend.puts)
}

func TestStoreRejectsOversizedImage(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)

	huge := make([]byte, imagestore.MaxImageSize+1)
	_, err := store.Store(context.Background(), huge, "image/png")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file size must be less than 5MB", verr.Message)
	assert.Zero(t, backend.puts)
}

func TestStoreRejectsUndecodableImage(t *testing.T) {
	backend := newFakeBackend()
	store := newStore(backend)

	_, err := store.Store(context.Background(), []byte("not actually an image"), "image/png")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStoreLookupFailureProceedsToUpload(t *testing.T) {
	// A broken existence lookup must not abort the submission; the store
	// assumes "not present" and uploads. Same key means the re-upload is
	// convergent, not a duplicate object.
	backend := newFakeBackend()
	store := newStore(backend)
	data := pngBytes(t, 50, 50)

	_, err := store.Store(context.Background(), data, "image/png")
	require.NoError(t, err)
	require.Equal(t, 1, backend.puts)

	backend.statErr = errors.New("backing store unreachable")
	img, err := store.Store(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.False(t, img.IsDuplicate)
	assert.Equal(t, 2, backend.puts)
	assert.Len(t, backend.objects, 1, "re-upload lands on the same key")
}
