// Package identity manages user accounts: registration, credential checks,
// and the HTML login/register surface.
package identity

import (
	"errors"
	"time"
)

// Account is a registered user. The email is stored lowercase and is the
// identity used everywhere else in the system.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ErrNotFound is returned when no account exists for the email.
var ErrNotFound = errors.New("account not found")

// ErrAlreadyExists is returned when an email is already registered.
var ErrAlreadyExists = errors.New("account already exists")

// ErrInvalidCredentials is returned for a wrong password or unknown email.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")
