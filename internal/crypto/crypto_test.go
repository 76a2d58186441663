package crypto

import (
	"strings"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewEncryptor_InvalidKey(t *testing.T) {
	if _, err := NewEncryptor([]byte("too short")); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	plaintext := "sessionid=abc123; csrftoken=xyz; ds_user_id=42"
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("Decrypt = %q, want %q", decrypted, plaintext)
	}
}

func TestEncrypt_EmptyString(t *testing.T) {
	enc, _ := NewEncryptor(testKey())

	ciphertext, err := enc.Encrypt("")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if ciphertext != "" {
		t.Errorf("expected empty ciphertext for empty plaintext, got %q", ciphertext)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	enc, _ := NewEncryptor(testKey())

	a, _ := enc.Encrypt("same value")
	b, _ := enc.Encrypt("same value")
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	enc, _ := NewEncryptor(testKey())

	ciphertext, _ := enc.Encrypt("cookie payload")
	tampered := strings.Replace(ciphertext, ciphertext[4:5], "A", 1)
	if tampered == ciphertext {
		tampered = "B" + ciphertext[1:]
	}

	if _, err := enc.Decrypt(tampered); err == nil {
		t.Error("expected error decrypting tampered ciphertext")
	}
}

func TestDecrypt_Garbage(t *testing.T) {
	enc, _ := NewEncryptor(testKey())

	if _, err := enc.Decrypt("not base64 at all!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := enc.Decrypt("AAAA"); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
}
