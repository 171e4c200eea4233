package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

type Memory struct {
	mu            sync.RWMutex
	now           func() time.Time
	profiles      map[string]*models.Profile
	moods         map[string]*models.MoodEntry
	conversations map[string]*models.Conversation
	messages      []*models.Message
}

func NewMemory() *Memory {
	return &Memory{
		now:           time.Now,
		profiles:      make(map[string]*models.Profile),
		moods:         make(map[string]*models.MoodEntry),
		conversations: make(map[string]*models.Conversation),
	}
}

// WithClock replaces the clock used for created_at defaults.
func (s *Memory) WithClock(now func() time.Time) *Memory {
	s.now = now
	return s
}

func (s *Memory) Close() error { return nil }

// Profile methods
func (s *Memory) CreateProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return apperr.ErrConflict
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()
	cp := *p
	s.profiles[p.ID] = &cp
	return nil
}

func (s *Memory) ProfileByEmail(_ context.Context, email string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			return *p, nil
		}
	}
	return models.Profile{}, apperr.ErrNotFound
}

func (s *Memory) Profile(_ context.Context, id string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[id]; ok {
		return *p, nil
	}
	return models.Profile{}, apperr.ErrNotFound
}

func (s *Memory) UpdateProfile(_ context.Context, id string, upd ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if upd.FullName != nil {
		v := *upd.FullName
		p.FullName = &v
	}
	if upd.Organization != nil {
		v := *upd.Organization
		p.Organization = &v
	}
	return nil
}

func (s *Memory) GrantRole(_ context.Context, email string, role models.Role, organization *string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if !strings.EqualFold(p.Email, email) {
			continue
		}
		p.Role = role
		if organization != nil {
			v := *organization
			p.Organization = &v
		}
		return *p, nil
	}
	return models.Profile{}, apperr.ErrNotFound
}

func (s *Memory) EmployerOverview(_ context.Context, organization string, now time.Time) (models.EmployerOverview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := models.EmployerOverview{Organization: organization}
	members := make(map[string]struct{})
	for id, p := range s.profiles {
		if p.Organization != nil && *p.Organization == organization {
			members[id] = struct{}{}
			if p.Role == models.RoleUser {
				out.Members++
			}
		}
	}
	weekAgo, monthAgo := now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)
	sum, n := 0, 0
	for _, m := range s.moods {
		if _, ok := members[m.UserID]; !ok {
			continue
		}
		if !m.CreatedAt.Before(weekAgo) {
			out.CheckInsLast7Days++
		}
		if !m.CreatedAt.Before(monthAgo) {
			sum += m.MoodScore
			n++
		}
	}
	if n > 0 {
		out.AverageMood30Days = float64(sum) / float64(n)
	}
	for _, c := range s.conversations {
		if _, ok := members[c.UserID]; ok && c.Status != models.RiskNormal {
			out.FlaggedConversations++
		}
	}
	return out, nil
}

// Mood methods
func (s *Memory) CreateMood(_ context.Context, e *models.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	cp := *e
	s.moods[e.ID] = &cp
	return nil
}

func (s *Memory) RecentMoods(_ context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.MoodEntry
	for _, m := range s.moods {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) ImportMoods(_ context.Context, userID string, entries []models.MoodEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, e := range entries {
		cp := e
		cp.UserID = userID
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		if _, exists := s.moods[cp.ID]; exists {
			continue
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = s.now()
		}
		s.moods[cp.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (s *Memory) DeleteMood(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.moods[id]
	if !ok || m.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(s.moods, id)
	return nil
}

// Conversation methods
func (s *Memory) CreateConversation(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.RiskNormal
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.conversations[c.ID] = &cp
	return nil
}

func (s *Memory) Conversation(_ context.Context, id string) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.conversations[id]; ok {
		return *c, nil
	}
	return models.Conversation{}, apperr.ErrNotFound
}

func (s *Memory) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Memory) FlaggedConversations(_ context.Context, min models.RiskStatus, limit int) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Conversation
	for _, c := range s.conversations {
		if c.Status != models.RiskNormal && c.Status.Rank() >= min.Rank() {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) EscalateStatus(_ context.Context, id string, status models.RiskStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.Status.Rank() > status.Rank() {
		return false, nil
	}
	c.Status = status
	c.UpdatedAt = at
	return true, nil
}

func (s *Memory) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[m.ConversationID]; !ok {
		return apperr.Persistence("append message", apperr.ErrNotFound)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *Memory) Messages(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sortMessages(out)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Memory) UnclassifiedMessages(_ context.Context, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.ClassifiedAt == nil && m.Role == models.MessageRoleUser {
			out = append(out, *m)
		}
	}
	sortMessages(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) MarkClassified(_ context.Context, messageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.ID == messageID {
			t := at
			m.ClassifiedAt = &t
			return nil
		}
	}
	return apperr.ErrNotFound
}

// sortMessages orders chronologically; ties keep insertion order.
func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
}
