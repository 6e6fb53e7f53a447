package gallery

import (
	"crypto/subtle"
	"strings"
)

// rootSegment is the fixed first segment of every stored object key.
const rootSegment = "users"

// Authorize reports whether the acting namespace may read the object at
// key. A key is readable only when it has the shape
// users/<namespace>/<name> with the namespace segment equal to the acting
// namespace. Any parse failure denies.
//
// The namespace comparison is constant-time so the check does not leak how
// much of a guessed namespace prefix matched.
func Authorize(key, actingNamespace string) bool {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != rootSegment || parts[2] == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(actingNamespace)) == 1
}
