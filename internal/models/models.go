package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the account type stored on a profile.
type Role string

const (
	RoleUser      Role = "user"
	RoleCounselor Role = "counselor"
	RoleEmployer  Role = "employer"
)

// ParseRole accepts only the known roles, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleCounselor:
		return RoleCounselor, nil
	case RoleEmployer:
		return RoleEmployer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Profile struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     *string   `db:"full_name" json:"full_name,omitempty"`
	Role         Role      `db:"role" json:"role"`
	Organization *string   `db:"organization" json:"organization,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type MoodEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	MoodScore int       `db:"mood_score" json:"mood_score"`
	Notes     *string   `db:"notes" json:"notes,omitempty"` // Encrypted in DB
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RiskStatus is the risk tier of a message and the status of a conversation.
type RiskStatus string

const (
	RiskNormal   RiskStatus = "normal"
	RiskModerate RiskStatus = "moderate"
	RiskRisky    RiskStatus = "risky"
)

// Rank orders statuses from normal (0) to risky (2). Unknown values rank as normal.
func (s RiskStatus) Rank() int {
	switch s {
	case RiskModerate:
		return 1
	case RiskRisky:
		return 2
	default:
		return 0
	}
}

func ParseRiskStatus(s string) (RiskStatus, error) {
	switch RiskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RiskNormal:
		return RiskNormal, nil
	case RiskModerate:
		return RiskModerate, nil
	case RiskRisky:
		return RiskRisky, nil
	}
	return "", fmt.Errorf("unknown risk status %q", s)
}

type Conversation struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	Status    RiskStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversation_id"`
	Role           MessageRole `db:"role" json:"role"`
	Content        string      `db:"content" json:"content"` // Encrypted in DB
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	ClassifiedAt   *time.Time  `db:"classified_at" json:"-"`
}

type MoodTrend string

const (
	TrendImproving MoodTrend = "improving"
	TrendStable    MoodTrend = "stable"
	TrendDeclining MoodTrend = "declining"
)

// WellnessInsights is derived from a window of mood entries and never stored.
type WellnessInsights struct {
	MoodTrend       MoodTrend   `json:"mood_trend"`
	AverageMood     float64     `json:"average_mood"`
	RecentEntries   []MoodEntry `json:"recent_entries"`
	StreakDays      int         `json:"streakDays"`
	Recommendations []string    `json:"recommendations"`
}

// EmployerOverview holds anonymized aggregates for one organization.
type EmployerOverview struct {
	Organization         string  `db:"organization" json:"organization"`
	Members              int     `db:"members" json:"members"`
	CheckInsLast7Days    int     `db:"check_ins_last_7_days" json:"check_ins_last_7_days"`
	AverageMood30Days    float64 `db:"average_mood_30_days" json:"average_mood_30_days"`
	FlaggedConversations int     `db:"flagged_conversations" json:"flagged_conversations"`
	// Withheld is set when the organization is too small to report aggregates.
	Withheld             bool    `db:"-" json:"withheld,omitempty"`
}
