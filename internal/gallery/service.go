// Package gallery implements the per-user image gallery: the upload
// pipeline, the namespace access guard, and listing/reading stored images
// and their caption records.
package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pixelcove/gallery/internal/caption"
	"github.com/pixelcove/gallery/internal/storage"
)

// allowedExtensions is the fixed set of accepted image extensions,
// matched case-insensitively.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Validation errors returned by Upload. All are hard rejects: when one is
// returned, nothing has been written to the store.
var (
	ErrMissingFile     = errors.New("no file provided")
	ErrEmptyFilename   = errors.New("filename must not be empty")
	ErrUnsupportedType = errors.New("file type not allowed: use png, jpg, jpeg, or gif")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
)

// ErrForbidden is returned when a key lies outside the acting user's
// namespace. Distinct from storage.ErrNotFound: denial must not be
// conflated with absence.
var ErrForbidden = errors.New("access to this object is denied")

// Service orchestrates uploads and access-guarded reads.
type Service struct {
	store          storage.Store
	captioner      caption.Generator
	maxUploadBytes int64
}

// NewService creates a gallery Service.
func NewService(store storage.Store, captioner caption.Generator, maxUploadBytes int64) *Service {
	return &Service{store: store, captioner: captioner, maxUploadBytes: maxUploadBytes}
}

// Upload runs the full pipeline for one image: validate, caption, store the
// image, store its caption record. It returns the stored object's key.
//
// Captioning is best-effort: a generator failure substitutes fallback text
// and the upload proceeds. The image and record writes are not atomic; a
// crash between them leaves an image without a record, which readers treat
// as "caption unavailable" rather than an error.
func (s *Service) Upload(ctx context.Context, ns string, file io.Reader, filename, mimeType string, size int64) (string, error) {
	if file == nil {
		return "", ErrMissingFile
	}
	if strings.TrimSpace(filename) == "" {
		return "", ErrEmptyFilename
	}
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}
	if size > s.maxUploadBytes {
		return "", ErrTooLarge
	}

	// Spool the upload through a scratch file with a per-request-unique
	// name. The deferred remove runs on every exit path, so no scratch
	// data survives a failure anywhere below.
	tmp, err := os.CreateTemp("", "gallery-upload-*")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	// The declared size is client-supplied; the limit is enforced again
	// on the actual bytes.
	written, err := io.Copy(tmp, io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if written > s.maxUploadBytes {
		return "", ErrTooLarge
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("read scratch file: %w", err)
	}

	result, err := s.captioner.Describe(ctx, data, mimeType)
	if err != nil {
		log.Printf("captioning failed, storing fallback: op=describe file=%s: %v", filename, err)
		result = caption.Fallback()
	}

	key := fmt.Sprintf("%s/%s/%s", rootSegment, ns, uniqueFilename(filename))
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return "", fmt.Errorf("store image %q: %w", key, err)
	}

	record := caption.FormatRecord(result)
	recordKey := caption.RecordKey(key)
	if err := s.store.Put(ctx, recordKey, bytes.NewReader(record), int64(len(record)), "text/plain"); err != nil {
		// The image is already stored; a missing record is a valid state
		// that readers handle leniently, so the upload still succeeds.
		log.Printf("caption record write failed: op=put key=%s: %v", recordKey, err)
	}

	return key, nil
}

// ListImages returns the keys of all images in the namespace. Caption
// records and any foreign objects are filtered out. Order follows whatever
// the store returns.
func (s *Service) ListImages(ctx context.Context, ns string) ([]string, error) {
	keys, err := s.store.List(ctx, fmt.Sprintf("%s/%s/", rootSegment, ns))
	if err != nil {
		return nil, fmt.Errorf("list namespace: %w", err)
	}

	images := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, caption.RecordSuffix) {
			continue
		}
		if !allowedExtensions[strings.ToLower(path.Ext(key))] {
			continue
		}
		images = append(images, key)
	}
	return images, nil
}

// OpenImage opens the image at key for the acting namespace. The access
// guard runs before the store is touched; denial returns ErrForbidden,
// which callers must keep distinct from storage.ErrNotFound.
func (s *Service) OpenImage(ctx context.Context, key, ns string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if !Authorize(key, ns) {
		return nil, nil, ErrForbidden
	}
	return s.store.Get(ctx, key)
}

// CaptionFor returns the caption record for the image at key. A present but
// malformed record yields sentinel text; an absent record returns
// storage.ErrNotFound.
func (s *Service) CaptionFor(ctx context.Context, key, ns string) (caption.Result, error) {
	if !Authorize(key, ns) {
		return caption.Result{}, ErrForbidden
	}

	r, _, err := s.store.Get(ctx, caption.RecordKey(key))
	if err != nil {
		return caption.Result{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return caption.Result{}, fmt.Errorf("read caption record: %w", err)
	}
	return caption.ParseRecord(data), nil
}

// unsafeChars matches everything a storage filename may not contain.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// uniqueFilename sanitizes the declared filename and prefixes it with a
// random token. The token keeps same-named uploads from colliding within a
// namespace; the sanitization strips path separators so a crafted filename
// cannot escape it.
func uniqueFilename(declared string) string {
	normalized := path.Base(strings.ReplaceAll(declared, "\\", "/"))
	ext := strings.ToLower(path.Ext(normalized))
	stem := strings.TrimSuffix(normalized, path.Ext(normalized))
	stem = unsafeChars.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = "upload"
	}
	return uuid.NewString()[:8] + "_" + stem + ext
}
