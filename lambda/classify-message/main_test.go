package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"mindwell/internal/models"
	"mindwell/internal/risk"
	"mindwell/internal/store"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	conv := models.Conversation{UserID: "u1", Title: "t", Status: models.RiskNormal}
	if err := mem.CreateConversation(ctx, &conv); err != nil {
		t.Fatal(err)
	}
	c := &classifier{risk: risk.NewService(mem, zap.NewNop()), secret: "s3cret", logger: zap.NewNop()}

	tests := []struct {
		name    string
		headers map[string]string
		body    string
		status  int
	}{
		{"no secret", nil, `{"conversation_id":"` + conv.ID + `","content":"hi"}`, http.StatusUnauthorized},
		{"bad json", map[string]string{"x-webhook-secret": "s3cret"}, `{`, http.StatusBadRequest},
		{"missing conversation", map[string]string{"X-Webhook-Secret": "s3cret"}, `{"content":"hi"}`, http.StatusBadRequest},
		{"moderate", map[string]string{"X-Webhook-Secret": "s3cret"}, `{"conversation_id":"` + conv.ID + `","content":"I feel lonely"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.handle(ctx, events.APIGatewayProxyRequest{Headers: tt.headers, Body: tt.body})
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, resp.Body)
			}
		})
	}

	got, _ := mem.Conversation(ctx, conv.ID)
	if got.Status != models.RiskModerate {
		t.Errorf("status = %s, want moderate", got.Status)
	}

	resp, _ := c.handle(ctx, events.APIGatewayProxyRequest{
		Headers: map[string]string{"X-Webhook-Secret": "s3cret"},
		Body:    `{"conversation_id":"` + conv.ID + `","content":"ok day"}`,
	})
	var res risk.Result
	if err := json.Unmarshal([]byte(resp.Body), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != models.RiskNormal || res.Escalated {
		t.Errorf("result = %+v", res)
	}
}
