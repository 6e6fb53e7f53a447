package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	const ns = "a1b2c3"

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"own image", "users/a1b2c3/photo.png", true},
		{"own caption record", "users/a1b2c3/photo_info.txt", true},
		{"nested name", "users/a1b2c3/x/y.png", true},
		{"other namespace", "users/zzz999/photo.png", false},
		{"namespace prefix of acting", "users/a1b2/photo.png", false},
		{"acting prefix of namespace", "users/a1b2c3d4/photo.png", false},
		{"wrong root", "groups/a1b2c3/photo.png", false},
		{"missing root", "a1b2c3/photo.png", false},
		{"too few segments", "users/a1b2c3", false},
		{"empty filename", "users/a1b2c3/", false},
		{"empty key", "", false},
		{"bare root", "users", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.key, ns))
		})
	}
}

func TestAuthorizeEmptyNamespaceNeverMatchesObjects(t *testing.T) {
	assert.False(t, Authorize("users/somebody/photo.png", ""))
}
