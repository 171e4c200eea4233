package services

import (
	"bytes"
	"encoding/base64"
	"testing"

	"mindwell/internal/models"
)

func TestMoodNotesRoundTrip(t *testing.T) {
	svc, err := NewEncryptionService(bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	notes := "argued with my sister"
	entry := models.MoodEntry{MoodScore: 2, Notes: &notes}
	if err := svc.EncryptMood(&entry); err != nil {
		t.Fatalf("EncryptMood: %v", err)
	}
	if *entry.Notes == notes {
		t.Fatal("notes were not encrypted")
	}
	if notes != "argued with my sister" {
		t.Fatal("EncryptMood must not modify the caller's string")
	}
	if err := svc.DecryptMood(&entry); err != nil {
		t.Fatalf("DecryptMood: %v", err)
	}
	if *entry.Notes != notes {
		t.Errorf("notes = %q, want %q", *entry.Notes, notes)
	}
}

func TestNilServiceIsPassthrough(t *testing.T) {
	var svc *EncryptionService
	msg := models.Message{Content: "hi"}
	if err := svc.EncryptMessage(&msg); err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}
	if msg.Content != "hi" {
		t.Errorf("content = %q, want plaintext", msg.Content)
	}
	entry := models.MoodEntry{MoodScore: 3}
	if err := svc.EncryptMood(&entry); err != nil {
		t.Fatalf("EncryptMood: %v", err)
	}
}

func TestDecryptMessagesKeepsPlaintextRows(t *testing.T) {
	svc, err := NewEncryptionService(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	sealed := models.Message{ID: "sealed", Content: "I feel hopeless"}
	if err := svc.EncryptMessage(&sealed); err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}
	msgs := []models.Message{
		{ID: "plain", Content: "I want to end my life"},
		sealed,
		{ID: "plain-b64", Content: "aGVsbG8gd29ybGQ="},
	}

	failed := svc.DecryptMessages(msgs)
	if len(failed) != 2 || failed[0] != "plain" || failed[1] != "plain-b64" {
		t.Errorf("failed ids = %v, want [plain plain-b64]", failed)
	}
	want := []string{"I want to end my life", "I feel hopeless", "aGVsbG8gd29ybGQ="}
	for i, m := range msgs {
		if m.Content != want[i] {
			t.Errorf("msgs[%d].Content = %q, want %q", i, m.Content, want[i])
		}
	}
}

func TestDecryptMoodsKeepsPlaintextRows(t *testing.T) {
	svc, err := NewEncryptionService(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	secret, plain := "slept badly", "walked the dog"
	sealed := models.MoodEntry{ID: "sealed", Notes: &secret}
	if err := svc.EncryptMood(&sealed); err != nil {
		t.Fatalf("EncryptMood: %v", err)
	}
	entries := []models.MoodEntry{sealed, {ID: "plain", Notes: &plain}}

	if failed := svc.DecryptMoods(entries); len(failed) != 1 || failed[0] != "plain" {
		t.Errorf("failed ids = %v, want [plain]", failed)
	}
	if *entries[0].Notes != "slept badly" || *entries[1].Notes != "walked the dog" {
		t.Errorf("notes = %q, %q", *entries[0].Notes, *entries[1].Notes)
	}
}

func TestFromEncodedKey(t *testing.T) {
	svc, err := FromEncodedKey("")
	if err != nil || svc != nil {
		t.Fatalf("empty key = %v, %v; want nil service", svc, err)
	}
	if _, err := FromEncodedKey("not base64!"); err == nil {
		t.Error("expected malformed key to fail")
	}
	svc, err = FromEncodedKey(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, 32)))
	if err != nil || svc == nil {
		t.Fatalf("valid key = %v, %v", svc, err)
	}
}
