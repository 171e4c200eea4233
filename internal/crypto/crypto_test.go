package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestEncryptDecrypt(t *testing.T) {
	svc, err := NewEncryptionService(testKey())
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	sealed, err := svc.Encrypt("slept badly, felt tense")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "slept badly, felt tense" {
		t.Fatal("ciphertext equals plaintext")
	}
	plain, err := svc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "slept badly, felt tense" {
		t.Errorf("Decrypt = %q", plain)
	}
}

func TestEncryptEmptyIsEmpty(t *testing.T) {
	svc, _ := NewEncryptionService(testKey())
	sealed, err := svc.Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("Encrypt(\"\") = %q, %v", sealed, err)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	a, _ := NewEncryptionService(testKey())
	b, _ := NewEncryptionService(bytes.Repeat([]byte{9}, 32))
	sealed, err := a.Encrypt("hello")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(sealed); err == nil {
		t.Fatal("expected decrypt with another key to fail")
	}
}

func TestKeyLength(t *testing.T) {
	if _, err := NewEncryptionService([]byte("short")); err == nil {
		t.Fatal("expected short key to be rejected")
	}
	if _, err := ParseKey(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatal("expected short encoded key to be rejected")
	}
	if _, err := ParseKey(base64.StdEncoding.EncodeToString(testKey())); err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
}
