package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHasher_Deterministic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  []byte
	}{
		{name: "unkeyed"},
		{name: "keyed", key: []byte("server-side-key")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewTokenHasher(tt.key)
			first := h.Sum("some.refresh.token")
			second := h.Sum("some.refresh.token")

			assert.Equal(t, first, second)
			assert.NotEqual(t, first, h.Sum("another.token"))

			raw, err := hex.DecodeString(first)
			require.NoError(t, err)
			assert.Len(t, raw, 32)
		})
	}
}

func TestTokenHasher_KeyedDiffersFromUnkeyed(t *testing.T) {
	t.Parallel()

	keyed := NewTokenHasher([]byte("server-side-key"))
	unkeyed := NewTokenHasher(nil)

	assert.True(t, keyed.Keyed())
	assert.False(t, unkeyed.Keyed())
	assert.NotEqual(t, keyed.Sum("same-input"), unkeyed.Sum("same-input"))
}

func TestTokenHasher_KeyChangesDigest(t *testing.T) {
	t.Parallel()

	a := NewTokenHasher([]byte("key-a"))
	b := NewTokenHasher([]byte("key-b"))

	assert.NotEqual(t, a.Sum("same-input"), b.Sum("same-input"))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hashed, err := HashPassword("password")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "password", hashed)

	assert.True(t, CheckPassword(hashed, "password"))
	assert.False(t, CheckPassword(hashed, "wrong"))
}
