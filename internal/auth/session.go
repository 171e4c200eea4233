package auth

import (
	"context"

	"mindwell/internal/models"
)

type sessionKey struct{}

type profileKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

func WithProfile(ctx context.Context, p models.Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

// ProfileFrom returns the profile loaded by the role middleware, if any.
func ProfileFrom(ctx context.Context) (models.Profile, bool) {
	p, ok := ctx.Value(profileKey{}).(models.Profile)
	return p, ok
}
