// Package session issues and validates the signed session tokens that carry
// a logged-in user's identity between requests.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that carries the session token.
const CookieName = "gallery_session"

const tokenValidity = 7 * 24 * time.Hour

// ErrInvalidToken is returned when a session token fails validation.
var ErrInvalidToken = errors.New("invalid or expired session token")

// Session is the authenticated state carried by a valid token: exactly the
// user's email and their storage-namespace token, nothing else.
type Session struct {
	Email     string
	Namespace string
}

// claims embeds the registered JWT claims plus the session payload.
type claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Namespace string `json:"namespace"`
}

// Manager signs and parses session tokens with an HMAC secret.
type Manager struct {
	secret []byte
	secure bool
}

// NewManager creates a session Manager. secure controls the Secure flag on
// issued cookies and should be true in production.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), secure: secure}
}

// Issue creates a signed token for the given email and namespace.
func (m *Manager) Issue(email, ns string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenValidity)),
		},
		Email:     email,
		Namespace: ns,
	})
	return token.SignedString(m.secret)
}

// Parse validates a token string and returns the session it carries.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.Email == "" || c.Namespace == "" {
		return nil, ErrInvalidToken
	}
	return &Session{Email: c.Email, Namespace: c.Namespace}, nil
}

// SetCookie attaches the session token to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenValidity / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
