package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory Repository for tests.
type fakeRepository struct {
	accounts map[string]*Account
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{accounts: map[string]*Account{}}
}

func (r *fakeRepository) Create(ctx context.Context, email, passwordHash string) (*Account, error) {
	if _, ok := r.accounts[email]; ok {
		return nil, ErrAlreadyExists
	}
	a := &Account{ID: email, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.accounts[email] = a
	return a, nil
}

func (r *fakeRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	a, ok := r.accounts[email]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := NewService(newFakeRepository())

	a, err := svc.Register(context.Background(), "  User@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", a.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeRepository())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"malformed email", "not-an-email", "password123"},
		{"empty email", "", "password123"},
		{"short password", "user@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Register(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "USER@example.com", "password123")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Register(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		a, err := svc.Login(context.Background(), "user@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", a.Email)
	})

	t.Run("case-insensitive email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "USER@EXAMPLE.COM", "password123")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "user@example.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginDoesNotRevealWhichFieldFailed(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Register(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	_, wrongPass := svc.Login(context.Background(), "user@example.com", "wrongpass")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.Equal(t, wrongPass, unknownEmail)
}
