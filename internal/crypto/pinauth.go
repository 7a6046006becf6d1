package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPin computes the salted authorization hash stored alongside each vault
// record. It is a pure access gate and carries no key material; the
// encryption key comes from DeriveKey only.
func HashPin(pin string) (string, error) {
	if pin == "" {
		return "", ErrEmptyPin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPin reports whether pin matches a hash produced by HashPin.
func VerifyPin(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
