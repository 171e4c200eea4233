package main

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"mindwell/internal/config"
	"mindwell/internal/llm"
	"mindwell/internal/models"
	"mindwell/internal/store"
)

func TestNewLLMWithoutKeyIsUnavailable(t *testing.T) {
	c := newLLM(&config.Config{}, zap.NewNop())
	if _, ok := c.(llm.Unavailable); !ok {
		t.Fatalf("client = %T, want llm.Unavailable", c)
	}

	c = newLLM(&config.Config{OpenAI: config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}}, zap.NewNop())
	if _, ok := c.(*llm.OpenAIClient); !ok {
		t.Fatalf("client = %T, want *llm.OpenAIClient", c)
	}
}

func TestNewAppFallsBackToMemoryStore(t *testing.T) {
	a, err := newApp(context.Background(), &config.Config{JWTSecret: "a-sufficiently-long-secret"}, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	if _, ok := a.store.(*store.Memory); !ok {
		t.Fatalf("store = %T, want *store.Memory", a.store)
	}
	if a.chat == nil || a.risk == nil || a.issuer == nil {
		t.Fatal("app components not wired")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "sweep": false, "grant-role": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestGrantRole(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, email := range []string{"cora@example.com", "ed@example.com"} {
		if err := mem.CreateProfile(ctx, &models.Profile{Email: email, Role: models.RoleUser}); err != nil {
			t.Fatal(err)
		}
	}

	p, err := grantRole(ctx, mem, " Cora@Example.com ", "counselor", "")
	if err != nil {
		t.Fatalf("grant counselor: %v", err)
	}
	if p.Role != models.RoleCounselor || p.Organization != nil {
		t.Errorf("counselor profile = %+v", p)
	}

	if _, err := grantRole(ctx, mem, "ed@example.com", "employer", ""); err == nil {
		t.Error("employer without organization was granted")
	}
	p, err = grantRole(ctx, mem, "ed@example.com", "employer", "Acme")
	if err != nil {
		t.Fatalf("grant employer: %v", err)
	}
	if p.Role != models.RoleEmployer || p.Organization == nil || *p.Organization != "Acme" {
		t.Errorf("employer profile = %+v", p)
	}

	if _, err := grantRole(ctx, mem, "ed@example.com", "admin", ""); err == nil {
		t.Error("unknown role was granted")
	}
	if _, err := grantRole(ctx, mem, "nobody@example.com", "counselor", ""); err == nil {
		t.Error("missing account was granted")
	}
}
