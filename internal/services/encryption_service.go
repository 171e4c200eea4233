package services

import (
	"fmt"

	"mindwell/internal/crypto"
	"mindwell/internal/models"
)

// EncryptionService wraps the crypto service with domain-specific methods.
// A nil *EncryptionService stores fields as plaintext.
type EncryptionService struct {
	crypto *crypto.EncryptionService
}

// NewEncryptionService creates a new encryption service
func NewEncryptionService(key []byte) (*EncryptionService, error) {
	cryptoSvc, err := crypto.NewEncryptionService(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{crypto: cryptoSvc}, nil
}

// FromEncodedKey builds the service from a base64 ENCRYPTION_KEY value.
// An empty value yields a nil service, which stores plaintext.
func FromEncodedKey(encoded string) (*EncryptionService, error) {
	if encoded == "" {
		return nil, nil
	}
	key, err := crypto.ParseKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	return NewEncryptionService(key)
}

// EncryptMood encrypts mood notes before storing in DB
func (s *EncryptionService) EncryptMood(entry *models.MoodEntry) error {
	if s == nil || entry.Notes == nil || *entry.Notes == "" {
		return nil
	}
	sealed, err := s.crypto.Encrypt(*entry.Notes)
	if err != nil {
		return err
	}
	entry.Notes = &sealed
	return nil
}

// DecryptMood decrypts mood notes after retrieving from DB
func (s *EncryptionService) DecryptMood(entry *models.MoodEntry) error {
	if s == nil || entry.Notes == nil || *entry.Notes == "" {
		return nil
	}
	plain, err := s.crypto.Decrypt(*entry.Notes)
	if err != nil {
		return err
	}
	entry.Notes = &plain
	return nil
}

func (s *EncryptionService) EncryptMessage(msg *models.Message) error {
	if s == nil {
		return nil
	}
	sealed, err := s.crypto.Encrypt(msg.Content)
	if err != nil {
		return err
	}
	msg.Content = sealed
	return nil
}

func (s *EncryptionService) DecryptMessage(msg *models.Message) error {
	if s == nil {
		return nil
	}
	plain, err := s.crypto.Decrypt(msg.Content)
	if err != nil {
		return err
	}
	msg.Content = plain
	return nil
}

// DecryptMessages opens each message in place. Rows that do not decrypt were
// written in plaintext by another client; they keep their stored content and
// their ids are returned.
func (s *EncryptionService) DecryptMessages(msgs []models.Message) (plaintext []string) {
	for i := range msgs {
		if err := s.DecryptMessage(&msgs[i]); err != nil {
			plaintext = append(plaintext, msgs[i].ID)
		}
	}
	return plaintext
}

// DecryptMoods is DecryptMessages for mood notes.
func (s *EncryptionService) DecryptMoods(entries []models.MoodEntry) (plaintext []string) {
	for i := range entries {
		if err := s.DecryptMood(&entries[i]); err != nil {
			plaintext = append(plaintext, entries[i].ID)
		}
	}
	return plaintext
}
