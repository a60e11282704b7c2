package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Cipher encrypts and decrypts message payloads with AES-256-CBC.
// Output is hex-encoded; the IV is generated per message and returned
// alongside the ciphertext so storage can keep the pair together.
type Cipher struct {
	key []byte
}

// NewCipher creates a cipher from a 32-byte key
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// NewCipherFromEnv reads the key from PULSE_ENCRYPTION_KEY (hex-encoded)
// or generates a random key when unset.
func NewCipherFromEnv() (*Cipher, error) {
	if raw := os.Getenv("PULSE_ENCRYPTION_KEY"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		return NewCipher(key)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return NewCipher(key)
}

// Encrypt encrypts plaintext and returns hex-encoded ciphertext and IV
func (c *Cipher) Encrypt(plaintext string) (ciphertext, iv string, err error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", err
	}

	rawIV := make([]byte, aes.BlockSize)
	if _, err := rand.Read(rawIV); err != nil {
		return "", "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, rawIV).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(encrypted), hex.EncodeToString(rawIV), nil
}

// Decrypt decrypts hex-encoded ciphertext using the hex-encoded IV
func (c *Cipher) Decrypt(ciphertext, iv string) (string, error) {
	encrypted, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext: %w", err)
	}

	rawIV, err := hex.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("invalid iv: %w", err)
	}
	if len(rawIV) != aes.BlockSize {
		return "", fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(rawIV))
	}
	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(encrypted))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, rawIV).CryptBlocks(decrypted, encrypted)

	unpadded, err := pkcs7Unpad(decrypted, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(unpadded), nil
}

// pkcs7Pad pads data to a multiple of blockSize
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

// pkcs7Unpad removes PKCS#7 padding
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded data length: %d", len(data))
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding")
		}
	}

	return data[:len(data)-padding], nil
}
