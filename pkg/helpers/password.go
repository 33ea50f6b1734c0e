package helpers

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a plain password with a bcrypt hash.
// A wrong password is (false, nil); an error means the stored hash is malformed.
func VerifyPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// DummyPasswordHash is a well-formed bcrypt hash at DefaultCost that no
// submitted password is expected to match.
var DummyPasswordHash = sync.OnceValue(func() string {
	h, err := HashPassword("teamsync:no-such-account")
	if err != nil {
		panic(err)
	}
	return h
})
