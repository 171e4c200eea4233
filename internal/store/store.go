// Package store persists profiles, mood check-ins, conversations and
// messages. Postgres backs production; Memory backs local runs and tests.
package store

import (
	"context"
	"time"

	"mindwell/internal/models"
)

type Store interface {
	Profiles
	Moods
	Conversations
	Close() error
}

type ProfileUpdate struct {
	FullName     *string
	Organization *string
}

type Profiles interface {
	// CreateProfile assigns ID and CreatedAt. A duplicate email yields apperr.ErrConflict.
	CreateProfile(ctx context.Context, p *models.Profile) error
	ProfileByEmail(ctx context.Context, email string) (models.Profile, error)
	Profile(ctx context.Context, id string) (models.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error
	// GrantRole sets the role of the profile with the given email. A nil
	// organization leaves the stored one unchanged.
	GrantRole(ctx context.Context, email string, role models.Role, organization *string) (models.Profile, error)
	EmployerOverview(ctx context.Context, organization string, now time.Time) (models.EmployerOverview, error)
}

type Moods interface {
	CreateMood(ctx context.Context, e *models.MoodEntry) error
	// RecentMoods returns at most limit entries, newest first.
	RecentMoods(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error)
	// ImportMoods inserts entries in one transaction, skipping ids that already exist.
	ImportMoods(ctx context.Context, userID string, entries []models.MoodEntry) (int, error)
	DeleteMood(ctx context.Context, userID, id string) error
}

type Conversations interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	Conversation(ctx context.Context, id string) (models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	// FlaggedConversations lists conversations whose status ranks at or above min, most recently updated first.
	FlaggedConversations(ctx context.Context, min models.RiskStatus, limit int) ([]models.Conversation, error)
	// EscalateStatus sets status and updated_at unless the stored status ranks higher.
	EscalateStatus(ctx context.Context, id string, status models.RiskStatus, at time.Time) (bool, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	// Messages returns the latest limit messages in chronological order.
	Messages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	// UnclassifiedMessages returns user messages not yet classified, oldest first.
	UnclassifiedMessages(ctx context.Context, limit int) ([]models.Message, error)
	MarkClassified(ctx context.Context, messageID string, at time.Time) error
}
