package gallery

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelcove/gallery/internal/middleware"
	"github.com/pixelcove/gallery/internal/response"
	"github.com/pixelcove/gallery/internal/storage"
	"github.com/pixelcove/gallery/internal/web"
)

// multipartOverhead is headroom added to the body limit for multipart
// boundaries and headers around the capped file part.
const multipartOverhead = 64 << 10

// Handler serves the gallery pages and image endpoints.
type Handler struct {
	svc            *Service
	renderer       *web.Renderer
	maxUploadBytes int64
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service, renderer *web.Renderer, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, renderer: renderer, maxUploadBytes: maxUploadBytes}
}

type indexData struct {
	Email  string
	Images []string
}

// Index renders the gallery page with the session user's images.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	images, err := h.svc.ListImages(r.Context(), sess.Namespace)
	if err != nil {
		log.Printf("listing failed: op=list user=%s: %v", sess.Email, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, http.StatusOK, "index.html", indexData{Email: sess.Email, Images: images})
}

// Upload handles the multipart image upload and responds with the JSON
// envelope the gallery page's XHR expects.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, ErrMissingFile.Error())
		return
	}
	defer file.Close()

	key, err := h.svc.Upload(r.Context(), sess.Namespace, file, header.Filename, header.Header.Get("Content-Type"), header.Size)
	switch {
	case err == nil:
		response.OK(w, map[string]string{"key": key})
	case errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrEmptyFilename),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrTooLarge):
		response.BadRequest(w, err.Error())
	default:
		log.Printf("upload failed: op=upload user=%s file=%s: %v", sess.Email, header.Filename, err)
		response.InternalError(w)
	}
}

// Image streams the image bytes with their stored content type. The access
// guard's denial (403) stays distinct from absence (404).
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	key := chi.URLParam(r, "*")

	body, info, err := h.svc.OpenImage(r.Context(), key, sess.Namespace)
	switch {
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "access denied")
		return
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "image not found")
		return
	case err != nil:
		log.Printf("image read failed: op=get key=%s user=%s: %v", key, sess.Email, err)
		response.InternalError(w)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("image stream aborted: op=get key=%s: %v", key, err)
	}
}

// ImageInfo returns the caption and description for an image as JSON.
func (h *Handler) ImageInfo(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	key := chi.URLParam(r, "*")

	result, err := h.svc.CaptionFor(r.Context(), key, sess.Namespace)
	switch {
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "access denied")
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "caption not found")
	case err != nil:
		log.Printf("caption read failed: op=get-info key=%s user=%s: %v", key, sess.Email, err)
		response.InternalError(w)
	default:
		response.JSON(w, http.StatusOK, result)
	}
}
