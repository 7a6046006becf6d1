package crypto

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	k1, err := DeriveKey("1234")
	require.NoError(t, err)
	k2, err := DeriveKey("1234")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeySize)

	k3, err := DeriveKey("5678")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestDeriveKeyEmptyPin(t *testing.T) {
	_, err := DeriveKey("")
	assert.ErrorIs(t, err, ErrEmptyPin)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("exactly sixteen!"), // one full block
		bytes.Repeat([]byte{0xAB}, 1<<16),
	}

	key, err := DeriveKey("1234")
	require.NoError(t, err)

	for _, plaintext := range payloads {
		ct, err := Encrypt(key, plaintext)
		require.NoError(t, err)
		require.NotZero(t, len(ct))
		assert.Zero(t, len(ct)%aes.BlockSize)

		pt, err := Decrypt(key, ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, pt)
	}
}

func TestEncryptIsDeterministic(t *testing.T) {
	key, err := DeriveKey("1234")
	require.NoError(t, err)

	// No nonce means identical input yields identical output under one key.
	ct1, err := Encrypt(key, []byte("same bytes"))
	require.NoError(t, err)
	ct2, err := Encrypt(key, []byte("same bytes"))
	require.NoError(t, err)
	assert.Equal(t, ct1, ct2)
}

func TestDecryptWrongKeyFailsPadding(t *testing.T) {
	k1, err := DeriveKey("1234")
	require.NoError(t, err)
	k2, err := DeriveKey("0000")
	require.NoError(t, err)

	ct, err := Encrypt(k1, []byte("attack at dawn"))
	require.NoError(t, err)

	_, err = Decrypt(k2, ct)
	assert.ErrorIs(t, err, ErrBadPadding)
}

func TestDecryptRejectsUnalignedCiphertext(t *testing.T) {
	key, err := DeriveKey("1234")
	require.NoError(t, err)

	_, err = Decrypt(key, []byte("short"))
	assert.ErrorIs(t, err, ErrCiphertextLength)

	_, err = Decrypt(key, nil)
	assert.ErrorIs(t, err, ErrCiphertextLength)
}

func TestStringRoundTrip(t *testing.T) {
	key, err := DeriveKey("secret")
	require.NoError(t, err)

	enc, err := EncryptString(key, "confidential note")
	require.NoError(t, err)
	assert.NotEqual(t, "confidential note", enc)

	dec, err := DecryptString(key, enc)
	require.NoError(t, err)
	assert.Equal(t, "confidential note", dec)

	_, err = DecryptString(key, "not base64 !!!")
	assert.Error(t, err)
}

func TestPinHashVerify(t *testing.T) {
	hash, err := HashPin("1234")
	require.NoError(t, err)
	assert.True(t, VerifyPin("1234", hash))
	assert.False(t, VerifyPin("0000", hash))

	// Salted: two hashes of the same PIN differ but both verify.
	hash2, err := HashPin("1234")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
	assert.True(t, VerifyPin("1234", hash2))

	_, err = HashPin("")
	assert.ErrorIs(t, err, ErrEmptyPin)
}
