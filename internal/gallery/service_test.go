package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelcove/gallery/internal/caption"
	"github.com/pixelcove/gallery/internal/storage"
)

// fakeStore is an in-memory storage.Store for tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	putErr  error
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]fakeObject{}}
}

func (s *fakeStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = fakeObject{data: data, contentType: contentType}
	return nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}
	info := &storage.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

func (s *fakeStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (s *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// fixedGenerator returns the same result for every image.
type fixedGenerator struct {
	result caption.Result
}

func (g fixedGenerator) Describe(ctx context.Context, image []byte, mimeType string) (caption.Result, error) {
	return g.result, nil
}

// failingGenerator always errors.
type failingGenerator struct{}

func (failingGenerator) Describe(ctx context.Context, image []byte, mimeType string) (caption.Result, error) {
	return caption.Result{}, fmt.Errorf("vision API unreachable")
}

const testNS = "a1b2c3d4"

func newTestService(store *fakeStore, gen caption.Generator) *Service {
	return NewService(store, gen, 5<<20)
}

func TestUploadStoresImageAndRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Result{Caption: "A dog", Description: "A dog in a park."}})

	content := []byte("png-bytes")
	key, err := svc.Upload(context.Background(), testNS, bytes.NewReader(content), "photo.png", "image/png", int64(len(content)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "users/"+testNS+"/"))
	assert.True(t, strings.HasSuffix(key, "_photo.png"))

	img := store.objects[key]
	assert.Equal(t, content, img.data)
	assert.Equal(t, "image/png", img.contentType)

	record := store.objects[caption.RecordKey(key)]
	parsed := caption.ParseRecord(record.data)
	assert.Equal(t, "A dog", parsed.Caption)
	assert.Equal(t, "A dog in a park.", parsed.Description)
}

func TestUploadValidationRejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name     string
		file     io.Reader
		filename string
		size     int64
		wantErr  error
	}{
		{"missing file", nil, "photo.png", 10, ErrMissingFile},
		{"empty filename", strings.NewReader("x"), "", 1, ErrEmptyFilename},
		{"blank filename", strings.NewReader("x"), "   ", 1, ErrEmptyFilename},
		{"disallowed extension", strings.NewReader("x"), "notes.txt", 1, ErrUnsupportedType},
		{"no extension", strings.NewReader("x"), "photo", 1, ErrUnsupportedType},
		{"declared size over cap", strings.NewReader("x"), "photo.png", 6 << 20, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, failingGenerator{})

			_, err := svc.Upload(context.Background(), testNS, tt.file, tt.filename, "image/png", tt.size)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.objects, "a rejected upload must not write to the store")
		})
	}
}

func TestUploadAllowedExtensionsCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Fallback()})

	for _, name := range []string{"a.PNG", "b.Jpg", "c.JPEG", "d.gif"} {
		_, err := svc.Upload(context.Background(), testNS, strings.NewReader("x"), name, "image/png", 1)
		assert.NoError(t, err, name)
	}
}

func TestUploadActualSizeOverCap(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, fixedGenerator{caption.Fallback()}, 16)

	// declared size lies under the cap, the body does not
	_, err := svc.Upload(context.Background(), testNS, strings.NewReader(strings.Repeat("x", 64)), "photo.png", "image/png", 8)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, store.objects)
}

func TestUploadSurvivesCaptioningFailure(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, failingGenerator{})

	key, err := svc.Upload(context.Background(), testNS, strings.NewReader("png-bytes"), "photo.png", "image/png", 9)
	require.NoError(t, err, "captioning failure must never block storage")

	record, ok := store.objects[caption.RecordKey(key)]
	require.True(t, ok)
	parsed := caption.ParseRecord(record.data)
	assert.Equal(t, caption.FallbackCaption, parsed.Caption)
	assert.Equal(t, caption.FallbackDescription, parsed.Description)
}

func TestUploadSanitizesFilename(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Fallback()})

	key, err := svc.Upload(context.Background(), testNS, strings.NewReader("x"), "../../etc/passwd#!.png", "image/png", 1)
	require.NoError(t, err)

	rest := strings.TrimPrefix(key, "users/"+testNS+"/")
	assert.NotContains(t, rest, "/")
	assert.NotContains(t, rest, "#")
	assert.True(t, strings.HasSuffix(rest, ".png"))
}

func TestUploadUniqueKeysForSameName(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Fallback()})

	k1, err := svc.Upload(context.Background(), testNS, strings.NewReader("x"), "photo.png", "image/png", 1)
	require.NoError(t, err)
	k2, err := svc.Upload(context.Background(), testNS, strings.NewReader("y"), "photo.png", "image/png", 1)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestUploadCleansScratchFile(t *testing.T) {
	scratch := t.TempDir()
	t.Setenv("TMPDIR", scratch)

	tests := []struct {
		name  string
		store *fakeStore
		gen   caption.Generator
		ok    bool
	}{
		{"success", newFakeStore(), fixedGenerator{caption.Fallback()}, true},
		{"generator failure", newFakeStore(), failingGenerator{}, true},
		{"store failure", &fakeStore{objects: map[string]fakeObject{}, putErr: fmt.Errorf("store down")}, fixedGenerator{caption.Fallback()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.store, tt.gen)
			_, err := svc.Upload(context.Background(), testNS, strings.NewReader("x"), "photo.png", "image/png", 1)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}

			entries, err := os.ReadDir(scratch)
			require.NoError(t, err)
			assert.Empty(t, entries, "scratch files must be removed on every exit path")
		})
	}
}

func TestListImages(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Fallback()})
	ctx := context.Background()

	_, err := svc.Upload(ctx, testNS, strings.NewReader("a"), "one.png", "image/png", 1)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, testNS, strings.NewReader("b"), "two.jpg", "image/jpeg", 1)
	require.NoError(t, err)
	// foreign namespace and stray objects must not appear
	require.NoError(t, store.Put(ctx, "users/other-ns/three.png", strings.NewReader("c"), 1, "image/png"))
	require.NoError(t, store.Put(ctx, "users/"+testNS+"/stray.dat", strings.NewReader("d"), 1, "application/octet-stream"))

	images, err := svc.ListImages(ctx, testNS)
	require.NoError(t, err)
	require.Len(t, images, 2, "caption records, strays, and foreign objects are filtered out")
	for _, key := range images {
		assert.True(t, strings.HasPrefix(key, "users/"+testNS+"/"))
		assert.False(t, strings.HasSuffix(key, caption.RecordSuffix))
	}
}

func TestOpenImageGuard(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Fallback()})
	ctx := context.Background()

	key, err := svc.Upload(ctx, testNS, strings.NewReader("png-bytes"), "photo.png", "image/png", 9)
	require.NoError(t, err)

	t.Run("owner reads bytes", func(t *testing.T) {
		body, info, err := svc.OpenImage(ctx, key, testNS)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "image/png", info.ContentType)
	})

	t.Run("other namespace forbidden", func(t *testing.T) {
		_, _, err := svc.OpenImage(ctx, key, "other-ns")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing key in own namespace is not found", func(t *testing.T) {
		_, _, err := svc.OpenImage(ctx, "users/"+testNS+"/missing.png", testNS)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestCaptionFor(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fixedGenerator{caption.Result{Caption: "A cat", Description: "A cat outside."}})
	ctx := context.Background()

	key, err := svc.Upload(ctx, testNS, strings.NewReader("x"), "photo.png", "image/png", 1)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		res, err := svc.CaptionFor(ctx, key, testNS)
		require.NoError(t, err)
		assert.Equal(t, "A cat", res.Caption)
		assert.Equal(t, "A cat outside.", res.Description)
	})

	t.Run("forbidden for other namespace", func(t *testing.T) {
		_, err := svc.CaptionFor(ctx, key, "other-ns")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("absent record is not found", func(t *testing.T) {
		_, err := svc.CaptionFor(ctx, "users/"+testNS+"/missing.png", testNS)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("malformed record yields sentinels", func(t *testing.T) {
		recordKey := caption.RecordKey(key)
		require.NoError(t, store.Put(ctx, recordKey, strings.NewReader("garbage"), 7, "text/plain"))

		res, err := svc.CaptionFor(ctx, key, testNS)
		require.NoError(t, err)
		assert.Equal(t, caption.MissingCaption, res.Caption)
		assert.Equal(t, caption.MissingDescription, res.Description)
	})
}
