// Package namespace derives the opaque per-user storage-namespace token.
//
// The token is a one-way digest of the (lowercased) email and a server-side
// salt, so object keys never expose the identity behind them and the mapping
// cannot be reversed without the salt. The same email always yields the same
// token, which is what makes the users/<token>/ prefix a stable namespace.
package namespace

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Deriver computes namespace tokens. It is pure: no state beyond the salt,
// no side effects, safe for concurrent use.
type Deriver struct {
	salt string
}

// NewDeriver creates a Deriver keyed by the given server-side salt.
func NewDeriver(salt string) *Deriver {
	return &Deriver{salt: salt}
}

// Derive returns the namespace token for the given email. The email is
// case-folded first, so the identity is case-insensitive.
func (d *Deriver) Derive(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email) + d.salt))
	return hex.EncodeToString(sum[:])
}
