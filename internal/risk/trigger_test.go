package risk

import (
	"testing"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

func TestParseTriggerBareRecord(t *testing.T) {
	tr, err := ParseTrigger([]byte(`{"content":"I feel hopeless","conversation_id":"c1"}`))
	if err != nil {
		t.Fatalf("ParseTrigger: %v", err)
	}
	if tr.Content != "I feel hopeless" || tr.ConversationID != "c1" || tr.Role != models.MessageRoleUser {
		t.Fatalf("unexpected trigger: %+v", tr)
	}
}

func TestParseTriggerWebhookEnvelope(t *testing.T) {
	body := `{"type":"INSERT","table":"messages","record":{"id":"m1","conversation_id":"c9","role":"assistant","content":"hello"}}`
	tr, err := ParseTrigger([]byte(body))
	if err != nil {
		t.Fatalf("ParseTrigger: %v", err)
	}
	if tr.MessageID != "m1" || tr.ConversationID != "c9" || tr.Role != models.MessageRoleAssistant {
		t.Fatalf("unexpected trigger: %+v", tr)
	}
}

func TestParseTriggerRejects(t *testing.T) {
	cases := map[string]string{
		"not json":             `{"content":`,
		"numeric content":      `{"content":42,"conversation_id":"c1"}`,
		"null content":         `{"content":null,"conversation_id":"c1"}`,
		"missing content":      `{"conversation_id":"c1"}`,
		"missing conversation": `{"content":"hi"}`,
		"unknown role":         `{"content":"hi","conversation_id":"c1","role":"system"}`,
		"update event":         `{"type":"UPDATE","record":{"content":"hi","conversation_id":"c1"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTrigger([]byte(body)); !apperr.IsInvalid(err) {
				t.Errorf("ParseTrigger(%s) = %v, want InvalidInputError", body, err)
			}
		})
	}
}

func TestParseTriggerEmptyContentIsNormal(t *testing.T) {
	tr, err := ParseTrigger([]byte(`{"content":"","conversation_id":"c1"}`))
	if err != nil {
		t.Fatalf("ParseTrigger: %v", err)
	}
	if got := Classify(tr.Content); got != models.RiskNormal {
		t.Errorf("Classify(\"\") = %q, want normal", got)
	}
}
