package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// TokenHasher produces the one-way digest under which refresh tokens are
// stored. With a key it computes HMAC-SHA256, otherwise plain SHA-256; the
// mode is fixed at construction and never re-decided per call. A keyed
// digest means a database dump alone is not enough to replay sessions.
type TokenHasher struct {
	key []byte
}

func NewTokenHasher(key []byte) *TokenHasher {
	if len(key) == 0 {
		return &TokenHasher{}
	}
	return &TokenHasher{key: key}
}

func (h *TokenHasher) Keyed() bool { return len(h.key) > 0 }

// Sum returns the lower-case hex digest of the plaintext token.
func (h *TokenHasher) Sum(token string) string {
	if h.Keyed() {
		mac := hmac.New(sha256.New, h.key)
		mac.Write([]byte(token))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
