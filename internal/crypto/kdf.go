package crypto

import (
	"crypto/sha1"
	"errors"
)

// KeySize is the AES-128 key length used for all vault ciphertext.
const KeySize = 16

var ErrEmptyPin = errors.New("pin must not be empty")

// DeriveKey turns a user PIN into an AES-128 key: SHA-1 over the PIN bytes,
// truncated to the first 16 bytes. No salt and no iteration count: the key
// is never stored, so it must be re-derivable from the PIN alone on every
// access.
func DeriveKey(pin string) ([]byte, error) {
	if pin == "" {
		return nil, ErrEmptyPin
	}
	sum := sha1.Sum([]byte(pin))
	key := make([]byte, KeySize)
	copy(key, sum[:KeySize])
	return key, nil
}
