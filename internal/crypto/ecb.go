package crypto

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrCiphertextLength means the ciphertext cannot have been produced by
	// this cipher at all.
	ErrCiphertextLength = errors.New("ciphertext length is not a multiple of the cipher block size")

	// ErrBadPadding is the decrypt-time signal that the supplied key almost
	// certainly does not match the key the data was encrypted under.
	ErrBadPadding = errors.New("invalid padding")
)

// Encrypt encrypts plaintext with AES-ECB and PKCS#7 padding. There is no IV
// and no per-message nonce: the stored ciphertext format must stay
// decryptable with nothing but the PIN-derived key, so two encryptions of the
// same plaintext under the same key are identical.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}
	bs := block.BlockSize()

	padded := pkcs7Pad(plaintext, bs)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return out, nil
}

// Decrypt reverses Encrypt. It fails with ErrCiphertextLength when the input
// is not block-aligned and with ErrBadPadding when the padding does not
// validate after decryption.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}
	bs := block.BlockSize()

	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, ErrCiphertextLength
	}

	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += bs {
		block.Decrypt(out[i:i+bs], ciphertext[i:i+bs])
	}
	return pkcs7Unpad(out, bs)
}

// EncryptString encrypts a UTF-8 string and returns the ciphertext base64
// encoded, for callers that store encrypted text in string columns.
func EncryptString(key []byte, data string) (string, error) {
	ct, err := Encrypt(key, []byte(data))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptString reverses EncryptString.
func DecryptString(key []byte, encoded string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	pt, err := Decrypt(key, ct)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func pkcs7Pad(data []byte, bs int) []byte {
	n := bs - len(data)%bs
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, bs int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > bs || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}
