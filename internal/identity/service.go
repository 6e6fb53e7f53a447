package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// emailRegex is a sanity check on the address shape, not full RFC validation.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// Service contains the business logic for account registration and login.
type Service struct {
	repo Repository
}

// NewService creates a new identity Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account for the given credentials. The email is
// case-folded before storage so the identity is case-insensitive.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCredentials, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a, err := s.repo.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Login validates credentials and returns the account. Unknown email and
// wrong password both return ErrInvalidCredentials; bcrypt's comparison is
// constant-time over the hash.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Still burn a hash comparison so the two failure modes take
		// similar time.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// timing when the email is unknown.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("gallery-dummy-credential"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
