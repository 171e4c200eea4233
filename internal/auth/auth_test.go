package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"mindwell/internal/models"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer(testSecret, time.Hour).WithClock(func() time.Time { return now })

	tok, err := iss.Issue("7d6f2c1e-1111-4222-8333-944455556666")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	s, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if s.UserID != "7d6f2c1e-1111-4222-8333-944455556666" {
		t.Errorf("subject = %q", s.UserID)
	}
	if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expires = %v", s.ExpiresAt)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer(testSecret, time.Hour).WithClock(func() time.Time { return now })
	valid, _ := iss.Issue("u1")

	expired, _ := NewIssuer(testSecret, time.Minute).
		WithClock(func() time.Time { return now.Add(-time.Hour) }).
		Issue("u1")
	otherKey, _ := NewIssuer([]byte("another-secret-another-secret!!"), time.Hour).
		WithClock(func() time.Time { return now }).
		Issue("u1")
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"alg none", noneAlg},
		{"no subject", noSubject},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v", tt.header, got, ok)
		}
	}
}

func TestRedirectPath(t *testing.T) {
	tests := []struct {
		role models.Role
		want string
	}{
		{models.RoleUser, "/home"},
		{models.RoleCounselor, "/counselor/dashboard"},
		{models.RoleEmployer, "/employer/dashboard"},
		{models.Role("admin"), LoginPath},
	}
	for _, tt := range tests {
		if got := RedirectPath(tt.role); got != tt.want {
			t.Errorf("RedirectPath(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFrom(ctx); ok {
		t.Fatal("empty context should have no session")
	}
	ctx = WithSession(ctx, Session{UserID: "u1"})
	if s, ok := SessionFrom(ctx); !ok || s.UserID != "u1" {
		t.Fatalf("session = %+v, %v", s, ok)
	}
	ctx = WithProfile(ctx, models.Profile{ID: "u1", Role: models.RoleEmployer})
	if p, ok := ProfileFrom(ctx); !ok || p.Role != models.RoleEmployer {
		t.Fatalf("profile = %+v, %v", p, ok)
	}
}
