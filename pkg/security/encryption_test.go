package security

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	for _, plaintext := range []string{
		"hello",
		"",
		"exactly sixteen!",
		"a longer message spanning several AES blocks to exercise CBC chaining",
	} {
		ciphertext, iv, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := c.Decrypt(ciphertext, iv)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCipherFreshIVPerMessage(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	first, firstIV, err := c.Encrypt("same message")
	require.NoError(t, err)
	second, secondIV, err := c.Encrypt("same message")
	require.NoError(t, err)

	assert.NotEqual(t, firstIV, secondIV)
	assert.NotEqual(t, first, second)
}

func TestCipherRejectsBadKeySize(t *testing.T) {
	_, err := NewCipher([]byte("too short"))
	assert.Error(t, err)
}

func TestCipherRejectsMalformedInput(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	ciphertext, iv, err := c.Encrypt("hello")
	require.NoError(t, err)

	_, err = c.Decrypt("not hex", iv)
	assert.Error(t, err)

	_, err = c.Decrypt(ciphertext, "not hex")
	assert.Error(t, err)

	// IV of the wrong length
	_, err = c.Decrypt(ciphertext, hex.EncodeToString([]byte{1, 2, 3}))
	assert.Error(t, err)

	// Ciphertext not block-aligned
	_, err = c.Decrypt(hex.EncodeToString([]byte{1, 2, 3}), iv)
	assert.Error(t, err)
}

func TestCipherWrongKeyFailsPaddingCheck(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	other, err := NewCipher(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)

	ciphertext, iv, err := c.Encrypt("secret payload that is long enough")
	require.NoError(t, err)

	decrypted, err := other.Decrypt(ciphertext, iv)
	if err == nil {
		// Padding can be valid by chance; the plaintext never is
		assert.NotEqual(t, "secret payload that is long enough", decrypted)
	}
}

func TestNewCipherFromEnv(t *testing.T) {
	t.Setenv("PULSE_ENCRYPTION_KEY", hex.EncodeToString(testKey()))
	c, err := NewCipherFromEnv()
	require.NoError(t, err)

	ciphertext, iv, err := c.Encrypt("hello")
	require.NoError(t, err)
	decrypted, err := c.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, "hello", decrypted)

	t.Setenv("PULSE_ENCRYPTION_KEY", "zz")
	_, err = NewCipherFromEnv()
	assert.Error(t, err)
}
