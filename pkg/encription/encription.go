// Package encription protects the stored session password at rest. The
// server's form API needs the plaintext password on every upload, so the
// value must be recoverable: AES-CFB with a pbkdf2-derived key rather
// than a one-way hash.
package encription

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize    = 32
	iterations = 4096
)

// keySalt is fixed per application: the threat model is casual reading of
// the sqlite file, not an offline attack on the passphrase.
var keySalt = []byte("tracklog-client-session")

type Enc struct {
	key []byte
}

// NewEnc derives the data key from the passphrase.
func NewEnc(passphrase string) *Enc {
	return &Enc{
		key: pbkdf2.Key([]byte(passphrase), keySalt, iterations, keySize, sha256.New),
	}
}

// Encrypt returns the AES-CFB ciphertext of data, IV-prefixed and
// base64-encoded.
func (e *Enc) Encrypt(data string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], []byte(data))

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *Enc) Decrypt(encryptedText string) (string, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encryptedText)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %w", err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < aes.BlockSize {
		return "", errors.New("ciphertext too short")
	}

	iv := ciphertext[:aes.BlockSize]
	ciphertext = ciphertext[aes.BlockSize:]

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(ciphertext, ciphertext)

	return string(ciphertext), nil
}
