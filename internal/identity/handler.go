package identity

import (
	"errors"
	"log"
	"net/http"

	"github.com/pixelcove/gallery/internal/namespace"
	"github.com/pixelcove/gallery/internal/session"
	"github.com/pixelcove/gallery/internal/web"
)

// Handler serves the login/register/logout pages.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	deriver  *namespace.Deriver
	renderer *web.Renderer
}

// NewHandler creates a new identity Handler.
func NewHandler(svc *Service, sessions *session.Manager, deriver *namespace.Deriver, renderer *web.Renderer) *Handler {
	return &Handler{svc: svc, sessions: sessions, deriver: deriver, renderer: renderer}
}

type formData struct {
	Error string
}

// ShowLogin renders the login form.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login.html", formData{})
}

// Login handles the login form submission. On success it establishes a
// session and redirects to the gallery.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	a, err := h.svc.Login(r.Context(), email, password)
	if errors.Is(err, ErrInvalidCredentials) {
		h.renderer.Render(w, http.StatusUnauthorized, "login.html", formData{Error: "Invalid email or password."})
		return
	}
	if err != nil {
		log.Printf("login failed: op=login email=%s: %v", email, err)
		h.renderer.Render(w, http.StatusInternalServerError, "login.html", formData{Error: "Something went wrong. Please try again."})
		return
	}

	h.establishSession(w, r, a.Email)
}

// ShowRegister renders the registration form.
func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register.html", formData{})
}

// Register handles the registration form submission. A new account is
// logged in immediately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	a, err := h.svc.Register(r.Context(), email, password)
	if errors.Is(err, ErrAlreadyExists) {
		h.renderer.Render(w, http.StatusConflict, "register.html", formData{Error: "That email is already registered."})
		return
	}
	if errors.Is(err, ErrInvalidCredentials) {
		h.renderer.Render(w, http.StatusBadRequest, "register.html", formData{Error: "Enter a valid email and a password of at least 8 characters."})
		return
	}
	if err != nil {
		log.Printf("registration failed: op=register email=%s: %v", email, err)
		h.renderer.Render(w, http.StatusInternalServerError, "register.html", formData{Error: "Something went wrong. Please try again."})
		return
	}

	h.establishSession(w, r, a.Email)
}

// Logout clears the session cookie and redirects to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// establishSession derives the user's storage namespace, issues a session
// token, and redirects to the gallery. The namespace is recomputed from the
// email here and on every subsequent request; it is never persisted.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, email string) {
	token, err := h.sessions.Issue(email, h.deriver.Derive(email))
	if err != nil {
		log.Printf("session issue failed: op=issue email=%s: %v", email, err)
		h.renderer.Render(w, http.StatusInternalServerError, "login.html", formData{Error: "Something went wrong. Please try again."})
		return
	}
	h.sessions.SetCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}
