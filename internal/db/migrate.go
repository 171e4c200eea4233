package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    full_name TEXT,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'counselor', 'employer')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS mood_entries (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    mood_score INTEGER NOT NULL CHECK (mood_score BETWEEN 1 AND 5),
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS mood_entries_user_created_idx ON mood_entries (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversations (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'normal' CHECK (status IN ('normal', 'moderate', 'risky')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS messages (
    id UUID PRIMARY KEY,
    conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS messages_conversation_created_idx ON messages (conversation_id, created_at);
`
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	alters := `
DO $$ BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='profiles' AND column_name='organization'
    ) THEN
        ALTER TABLE profiles ADD COLUMN organization TEXT;
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='messages' AND column_name='classified_at'
    ) THEN
        ALTER TABLE messages ADD COLUMN classified_at TIMESTAMPTZ;
        -- Assistant replies never need classification
        UPDATE messages SET classified_at = created_at WHERE role = 'assistant';
    END IF;
END $$;

CREATE INDEX IF NOT EXISTS profiles_organization_idx ON profiles (organization);
CREATE INDEX IF NOT EXISTS messages_unclassified_idx ON messages (created_at) WHERE classified_at IS NULL;`
	_, err = db.ExecContext(ctx, alters)
	return err
}
