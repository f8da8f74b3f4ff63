package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		dark     bool
		expected string
	}{
		{"sized light", 64, false, "avatar-placeholder.64.png"},
		{"sized dark", 64, true, "avatar-placeholder-dark.64.png"},
		{"other size", 128, false, "avatar-placeholder.128.png"},
		{"native light", SizeOriginal, false, "avatar-placeholder.png"},
		{"native dark", SizeOriginal, true, "avatar-placeholder-dark.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolvePath(tt.size, tt.dark))
		})
	}
}

func TestResolvePathKeysNeverCollide(t *testing.T) {
	seen := map[string]bool{}
	for _, size := range []int{SizeOriginal, 16, 32, 64, 128} {
		for _, dark := range []bool{false, true} {
			key := resolvePath(size, dark)
			assert.False(t, seen[key], "duplicate key %s", key)
			seen[key] = true
		}
	}
}
