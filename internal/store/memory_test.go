package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

func newConversation(t *testing.T, s *Memory, userID string) models.Conversation {
	t.Helper()
	c := models.Conversation{UserID: userID, Title: "check-in"}
	if err := s.CreateConversation(context.Background(), &c); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	return c
}

func TestEscalateStatusNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	c := newConversation(t, s, "u1")
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	steps := []struct {
		status  models.RiskStatus
		changed bool
		want    models.RiskStatus
	}{
		{models.RiskModerate, true, models.RiskModerate},
		{models.RiskRisky, true, models.RiskRisky},
		{models.RiskModerate, false, models.RiskRisky},
		{models.RiskRisky, true, models.RiskRisky},
	}
	for i, step := range steps {
		at = at.Add(time.Minute)
		changed, err := s.EscalateStatus(ctx, c.ID, step.status, at)
		if err != nil {
			t.Fatalf("step %d: EscalateStatus: %v", i, err)
		}
		if changed != step.changed {
			t.Errorf("step %d: changed = %v, want %v", i, changed, step.changed)
		}
		got, _ := s.Conversation(ctx, c.ID)
		if got.Status != step.want {
			t.Errorf("step %d: status = %q, want %q", i, got.Status, step.want)
		}
	}
}

func TestRecentMoodsNewestFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := models.MoodEntry{UserID: "u1", MoodScore: i%5 + 1, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.CreateMood(ctx, &e); err != nil {
			t.Fatalf("CreateMood: %v", err)
		}
	}
	other := models.MoodEntry{UserID: "u2", MoodScore: 1, CreatedAt: base}
	_ = s.CreateMood(ctx, &other)

	got, err := s.RecentMoods(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("RecentMoods: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("entries not newest-first: %v", got)
		}
	}
	if got[0].MoodScore != 5 {
		t.Errorf("newest score = %d, want 5", got[0].MoodScore)
	}
}

func TestImportMoodsSkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	entries := []models.MoodEntry{
		{ID: "a", MoodScore: 3, CreatedAt: time.Now()},
		{ID: "b", MoodScore: 4, CreatedAt: time.Now()},
	}
	n, err := s.ImportMoods(ctx, "u1", entries)
	if err != nil || n != 2 {
		t.Fatalf("ImportMoods = %d, %v; want 2, nil", n, err)
	}
	n, err = s.ImportMoods(ctx, "u1", entries)
	if err != nil || n != 0 {
		t.Fatalf("second ImportMoods = %d, %v; want 0, nil", n, err)
	}
}

func TestDeleteMoodOwnership(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	e := models.MoodEntry{UserID: "u1", MoodScore: 3}
	_ = s.CreateMood(ctx, &e)

	if err := s.DeleteMood(ctx, "u2", e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("DeleteMood by other user = %v, want ErrNotFound", err)
	}
	if err := s.DeleteMood(ctx, "u1", e.ID); err != nil {
		t.Fatalf("DeleteMood: %v", err)
	}
}

func TestUnclassifiedMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	c := newConversation(t, s, "u1")

	user := models.Message{ConversationID: c.ID, Role: models.MessageRoleUser, Content: "hi"}
	now := time.Now()
	assistant := models.Message{ConversationID: c.ID, Role: models.MessageRoleAssistant, Content: "hello", ClassifiedAt: &now}
	_ = s.AppendMessage(ctx, &user)
	_ = s.AppendMessage(ctx, &assistant)

	got, err := s.UnclassifiedMessages(ctx, 10)
	if err != nil {
		t.Fatalf("UnclassifiedMessages: %v", err)
	}
	if len(got) != 1 || got[0].ID != user.ID {
		t.Fatalf("unclassified = %+v, want only the user message", got)
	}
	if err := s.MarkClassified(ctx, user.ID, now); err != nil {
		t.Fatalf("MarkClassified: %v", err)
	}
	if got, _ := s.UnclassifiedMessages(ctx, 10); len(got) != 0 {
		t.Fatalf("unclassified after mark = %d, want 0", len(got))
	}
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	s := NewMemory()
	err := s.AppendMessage(context.Background(), &models.Message{ConversationID: "missing", Role: models.MessageRoleUser})
	if !apperr.IsPersistence(err) {
		t.Fatalf("AppendMessage = %v, want PersistenceError", err)
	}
}

func TestCreateProfileDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.CreateProfile(ctx, &models.Profile{Email: "a@example.com", Role: models.RoleUser}); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	err := s.CreateProfile(ctx, &models.Profile{Email: "A@example.com", Role: models.RoleUser})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate CreateProfile = %v, want ErrConflict", err)
	}
}

func TestGrantRoleKeepsOrganizationWhenNil(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	org := "Acme"
	if err := s.CreateProfile(ctx, &models.Profile{Email: "ed@example.com", Role: models.RoleUser, Organization: &org}); err != nil {
		t.Fatal(err)
	}

	p, err := s.GrantRole(ctx, "ED@example.com", models.RoleEmployer, nil)
	if err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if p.Role != models.RoleEmployer || p.Organization == nil || *p.Organization != "Acme" {
		t.Errorf("profile = %+v", p)
	}
	if _, err := s.GrantRole(ctx, "nobody@example.com", models.RoleCounselor, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GrantRole missing = %v, want ErrNotFound", err)
	}
}
