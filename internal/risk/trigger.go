package risk

import (
	"encoding/json"
	"strings"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

// Trigger is a newly inserted message as delivered by a database webhook or
// posted directly as {content, conversation_id}.
type Trigger struct {
	MessageID      string
	ConversationID string
	Role           models.MessageRole
	Content        string
}

func (t Trigger) Message() models.Message {
	return models.Message{
		ID:             t.MessageID,
		ConversationID: t.ConversationID,
		Role:           t.Role,
		Content:        t.Content,
	}
}

type triggerRecord struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        json.RawMessage `json:"content"`
}

type webhookEnvelope struct {
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	Record *triggerRecord `json:"record"`
}

// ParseTrigger accepts either a bare record or an INSERT webhook envelope
// wrapping one under "record". A missing role means a user message.
func ParseTrigger(body []byte) (Trigger, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Trigger{}, apperr.Invalid("body", "malformed JSON")
	}

	var rec triggerRecord
	if env.Record != nil {
		if env.Type != "" && !strings.EqualFold(env.Type, "INSERT") {
			return Trigger{}, apperr.Invalid("type", "only INSERT events are classified")
		}
		rec = *env.Record
	} else if err := json.Unmarshal(body, &rec); err != nil {
		return Trigger{}, apperr.Invalid("body", "malformed JSON")
	}

	var content string
	if len(rec.Content) == 0 || string(rec.Content) == "null" || json.Unmarshal(rec.Content, &content) != nil {
		return Trigger{}, apperr.Invalid("content", "must be a string")
	}
	if strings.TrimSpace(rec.ConversationID) == "" {
		return Trigger{}, apperr.Invalid("conversation_id", "required")
	}

	role := models.MessageRoleUser
	switch strings.ToLower(strings.TrimSpace(rec.Role)) {
	case "", string(models.MessageRoleUser):
	case string(models.MessageRoleAssistant):
		role = models.MessageRoleAssistant
	default:
		return Trigger{}, apperr.Invalid("role", "must be user or assistant")
	}

	return Trigger{
		MessageID:      rec.ID,
		ConversationID: rec.ConversationID,
		Role:           role,
		Content:        content,
	}, nil
}
