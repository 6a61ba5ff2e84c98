package tokenmanager

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher turns plaintext secret into the value stored in repository
// HMAC keyed with service secret: leaked table alone is not enough to check guesses
type Hasher struct {
	key []byte
}

func NewHasher(secretKey string) Hasher {
	return Hasher{key: []byte(secretKey)}
}

// Hash returns hex encoded HMAC-SHA256 of the secret
func (h Hasher) Hash(secret string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}
