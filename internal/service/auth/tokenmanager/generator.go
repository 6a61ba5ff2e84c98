package tokenmanager

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Secret length in bytes before encoding: 128 bits
const SecretBytesLen = 16

// Generator produces plaintext token secrets
type Generator interface {
	Generate() (string, error)
}

// Allow to use a function as Generator
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomGenerator reads SecretBytesLen random bytes and encodes them with standard base64
// Uniqueness is not checked here: the token repository rejects duplicates
type RandomGenerator struct {
	// Source of randomness. crypto/rand if not set
	Reader io.Reader
}

func (g RandomGenerator) Generate() (string, error) {
	r := g.Reader
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, SecretBytesLen)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("error while reading random bytes. Err: %w", err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}
