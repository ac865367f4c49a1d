package utils

import (
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// MaxPasswordBytes is the bcrypt input limit; longer passwords are truncated to it
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of password at the given cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password)) == nil
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes] // Only the first 72 bytes take part in the hash
	}
	return b
}
