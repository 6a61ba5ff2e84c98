package auth

import (
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hash compared against when user not found, so login takes the same time for any username
var dummyHash = sync.OnceValue(func() string {
	hash, _ := BcryptHasher{}.Hash("dummy-password")
	return hash
})

// Bcrypt password hasher
// Will be used as default one if user not provide it's own
// Password is prehashed with sha256 so passwords longer than 72 bytes are not truncated
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
