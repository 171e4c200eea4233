package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
	"mindwell/internal/services"
)

const uniqueViolation = "23505"

// rank of the stored status, matching models.RiskStatus.Rank
const statusRankSQL = `CASE status WHEN 'risky' THEN 2 WHEN 'moderate' THEN 1 ELSE 0 END`

type Postgres struct {
	db     *sqlx.DB
	encSvc *services.EncryptionService
	logger *zap.Logger
}

// OpenPostgres opens a pgx-backed pool and pings it.
func OpenPostgres(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	dbConn, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return dbConn, nil
}

// NewPostgres wraps an open connection. encSvc may be nil to store plaintext.
func NewPostgres(db *sqlx.DB, encSvc *services.EncryptionService) *Postgres {
	return &Postgres{db: db, encSvc: encSvc, logger: zap.NewNop()}
}

// WithLogger sets the logger used to report rows that fail to decrypt.
func (s *Postgres) WithLogger(logger *zap.Logger) *Postgres {
	s.logger = logger
	return s
}

func (s *Postgres) Close() error { return s.db.Close() }

func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return apperr.Persistence(op, err)
}

func (s *Postgres) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (id, email, password_hash, full_name, role, organization)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.Role, p.Organization).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.ErrConflict
		}
		return apperr.Persistence("create profile", err)
	}
	return nil
}

const profileColumns = `id, email, password_hash, full_name, role, organization, created_at`

func (s *Postgres) ProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	var p models.Profile
	if err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE email=$1`, email); err != nil {
		return models.Profile{}, notFoundOr("profile by email", err)
	}
	return p, nil
}

func (s *Postgres) Profile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	if err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id); err != nil {
		return models.Profile{}, notFoundOr("profile", err)
	}
	return p, nil
}

func (s *Postgres) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	setClauses := []string{}
	args := []interface{}{}
	if upd.FullName != nil {
		args = append(args, *upd.FullName)
		setClauses = append(setClauses, fmt.Sprintf("full_name=$%d", len(args)))
	}
	if upd.Organization != nil {
		args = append(args, *upd.Organization)
		setClauses = append(setClauses, fmt.Sprintf("organization=$%d", len(args)))
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") + fmt.Sprintf(" WHERE id=$%d", len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Persistence("update profile", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Postgres) GrantRole(ctx context.Context, email string, role models.Role, organization *string) (models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p,
		`UPDATE profiles SET role=$2, organization=COALESCE($3, organization)
		 WHERE email=$1
		 RETURNING `+profileColumns,
		email, role, organization)
	if err != nil {
		return models.Profile{}, notFoundOr("grant role", err)
	}
	return p, nil
}

func (s *Postgres) EmployerOverview(ctx context.Context, organization string, now time.Time) (models.EmployerOverview, error) {
	query := `
		SELECT
			$1::text AS organization,
			(SELECT COUNT(*) FROM profiles WHERE organization = $1 AND role = 'user') AS members,
			(SELECT COUNT(*) FROM mood_entries m JOIN profiles p ON p.id = m.user_id
			  WHERE p.organization = $1 AND m.created_at >= $2) AS check_ins_last_7_days,
			(SELECT COALESCE(AVG(m.mood_score), 0)::float8 FROM mood_entries m JOIN profiles p ON p.id = m.user_id
			  WHERE p.organization = $1 AND m.created_at >= $3) AS average_mood_30_days,
			(SELECT COUNT(*) FROM conversations c JOIN profiles p ON p.id = c.user_id
			  WHERE p.organization = $1 AND c.status <> 'normal') AS flagged_conversations`
	var out models.EmployerOverview
	if err := s.db.GetContext(ctx, &out, query, organization, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)); err != nil {
		return models.EmployerOverview{}, apperr.Persistence("employer overview", err)
	}
	return out, nil
}

func (s *Postgres) CreateMood(ctx context.Context, e *models.MoodEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	stored := *e
	if err := s.encSvc.EncryptMood(&stored); err != nil {
		return fmt.Errorf("encrypt notes: %w", err)
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO mood_entries (id, user_id, mood_score, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		stored.ID, stored.UserID, stored.MoodScore, stored.Notes).Scan(&e.CreatedAt)
	return apperr.Persistence("create mood", err)
}

func (s *Postgres) RecentMoods(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	var out []models.MoodEntry
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, user_id, mood_score, notes, created_at FROM mood_entries
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, apperr.Persistence("recent moods", err)
	}
	if ids := s.encSvc.DecryptMoods(out); len(ids) > 0 {
		s.logger.Warn("mood notes not decryptable; returning stored text", zap.Strings("mood_ids", ids))
	}
	return out, nil
}

func (s *Postgres) ImportMoods(ctx context.Context, userID string, entries []models.MoodEntry) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.Persistence("begin import", err)
	}
	defer tx.Rollback() // Rollback on any error.

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO mood_entries (id, user_id, mood_score, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, apperr.Persistence("prepare import", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, entry := range entries {
		stored := entry
		stored.UserID = userID
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now()
		}
		if err := s.encSvc.EncryptMood(&stored); err != nil {
			return 0, fmt.Errorf("encrypt notes: %w", err)
		}
		res, err := stmt.ExecContext(ctx, stored.ID, stored.UserID, stored.MoodScore, stored.Notes, stored.CreatedAt)
		if err != nil {
			return 0, apperr.Persistence("import mood", err)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Persistence("commit import", err)
	}
	return inserted, nil
}

func (s *Postgres) DeleteMood(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return apperr.Persistence("delete mood", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.RiskNormal
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, user_id, title, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Title, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
	return apperr.Persistence("create conversation", err)
}

const conversationColumns = `id, user_id, title, status, created_at, updated_at`

func (s *Postgres) Conversation(ctx context.Context, id string) (models.Conversation, error) {
	var c models.Conversation
	if err := s.db.GetContext(ctx, &c, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id); err != nil {
		return models.Conversation{}, notFoundOr("conversation", err)
	}
	return c, nil
}

func (s *Postgres) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_id=$1 ORDER BY updated_at DESC LIMIT 100`, userID)
	if err != nil {
		return nil, apperr.Persistence("list conversations", err)
	}
	return out, nil
}

func (s *Postgres) FlaggedConversations(ctx context.Context, min models.RiskStatus, limit int) ([]models.Conversation, error) {
	var out []models.Conversation
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE `+statusRankSQL+` >= $1 AND status <> 'normal'
		 ORDER BY updated_at DESC LIMIT $2`, min.Rank(), limit)
	if err != nil {
		return nil, apperr.Persistence("flagged conversations", err)
	}
	return out, nil
}

func (s *Postgres) EscalateStatus(ctx context.Context, id string, status models.RiskStatus, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = $2, updated_at = $3
		 WHERE id = $1 AND `+statusRankSQL+` <= $4`, id, status, at, status.Rank())
	if err != nil {
		return false, apperr.Persistence("escalate conversation status", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *Postgres) AppendMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	stored := *m
	if err := s.encSvc.EncryptMessage(&stored); err != nil {
		return fmt.Errorf("encrypt message: %w", err)
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, classified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		stored.ID, stored.ConversationID, stored.Role, stored.Content, stored.ClassifiedAt).Scan(&m.CreatedAt)
	return apperr.Persistence("append message", err)
}

const messageColumns = `id, conversation_id, role, content, created_at, classified_at`

func (s *Postgres) Messages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	var out []models.Message
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM (
			SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at DESC LIMIT $2
		 ) latest ORDER BY created_at ASC`, conversationID, limit)
	if err != nil {
		return nil, apperr.Persistence("messages", err)
	}
	return s.decryptMessages(out), nil
}

func (s *Postgres) UnclassifiedMessages(ctx context.Context, limit int) ([]models.Message, error) {
	var out []models.Message
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+messageColumns+` FROM messages
		 WHERE classified_at IS NULL AND role = 'user'
		 ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Persistence("unclassified messages", err)
	}
	return s.decryptMessages(out), nil
}

func (s *Postgres) MarkClassified(ctx context.Context, messageID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE messages SET classified_at = $2 WHERE id = $1`, messageID, at)
	return apperr.Persistence("mark message classified", err)
}

// decryptMessages never fails the batch: one plaintext row must not block
// history reads or the classification sweep.
func (s *Postgres) decryptMessages(msgs []models.Message) []models.Message {
	if ids := s.encSvc.DecryptMessages(msgs); len(ids) > 0 {
		s.logger.Warn("messages not decryptable; returning stored text", zap.Strings("message_ids", ids))
	}
	return msgs
}
