package encription

import (
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	enc := NewEnc("supersecretkey")
	data := "hello world"

	encryptedData, err := enc.Encrypt(data)
	if err != nil {
		t.Fatal("Error encrypting data:", err)
	}
	if encryptedData == data {
		t.Error("Encrypted data must differ from plaintext")
	}

	decryptedData, err := enc.Decrypt(encryptedData)
	if err != nil {
		t.Fatal("Error decrypting data:", err)
	}
	if decryptedData != data {
		t.Errorf("Expected decrypted data to be %s, got %s", data, decryptedData)
	}
}

func TestEncryptProducesFreshCiphertext(t *testing.T) {
	enc := NewEnc("supersecretkey")

	first, err := enc.Encrypt("hello world")
	if err != nil {
		t.Fatal("Error encrypting data:", err)
	}
	second, err := enc.Encrypt("hello world")
	if err != nil {
		t.Fatal("Error encrypting data:", err)
	}
	// Random IV: the same plaintext never repeats on the wire.
	if first == second {
		t.Error("Expected two encryptions of the same data to differ")
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	enc := NewEnc("supersecretkey")

	if _, err := enc.Decrypt("not base64 at all!!!"); err == nil {
		t.Error("Expected error for invalid base64 input")
	}
	if _, err := enc.Decrypt("YWJj"); err == nil {
		t.Error("Expected error for ciphertext shorter than the IV")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc := NewEnc("supersecretkey")
	other := NewEnc("differentkey")

	encrypted, err := enc.Encrypt("hello world")
	if err != nil {
		t.Fatal("Error encrypting data:", err)
	}

	decrypted, err := other.Decrypt(encrypted)
	if err == nil && decrypted == "hello world" {
		t.Error("Expected wrong key to fail to recover plaintext")
	}
}
