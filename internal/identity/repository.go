package identity

import "context"

// Repository persists accounts. The Postgres implementation is the real
// store; tests substitute an in-memory fake.
type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
