package risk

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

// Opener decrypts message content sealed at rest.
type Opener interface {
	DecryptMessage(msg *models.Message) error
}

// ConversationStore is the slice of the store the classifier writes to.
type ConversationStore interface {
	EscalateStatus(ctx context.Context, id string, status models.RiskStatus, at time.Time) (bool, error)
	MarkClassified(ctx context.Context, messageID string, at time.Time) error
	UnclassifiedMessages(ctx context.Context, limit int) ([]models.Message, error)
}

// maxMarkAttempts bounds how many sweeps retry a message whose
// classified_at cannot be written.
const maxMarkAttempts = 5

type Service struct {
	store  ConversationStore
	logger *zap.Logger
	now    func() time.Time
	opener Opener

	mu           sync.Mutex
	markFailures map[string]int
}

func NewService(store ConversationStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now, markFailures: make(map[string]int)}
}

// WithClock replaces the clock used for updated_at and classified_at.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Result struct {
	Status    models.RiskStatus `json:"status"`
	Escalated bool              `json:"escalated"`
}

// ClassifyMessage tags msg and, for user messages that are not normal,
// escalates the conversation status. Storage failures are logged and do not
// change the returned tier.
func (s *Service) ClassifyMessage(ctx context.Context, msg models.Message) (Result, error) {
	res, _, err := s.classify(ctx, msg)
	return res, err
}

// classify is ClassifyMessage that also reports whether classified_at was written.
func (s *Service) classify(ctx context.Context, msg models.Message) (Result, bool, error) {
	if msg.ConversationID == "" {
		return Result{}, false, apperr.Invalid("conversation_id", "required")
	}
	if msg.Role != models.MessageRoleUser {
		return Result{Status: models.RiskNormal}, true, nil
	}

	res := Result{Status: Classify(msg.Content)}
	at := s.now()

	if res.Status != models.RiskNormal {
		escalated, err := s.store.EscalateStatus(ctx, msg.ConversationID, res.Status, at)
		if err != nil {
			s.logger.Error("conversation risk status update failed",
				zap.String("conversation_id", msg.ConversationID),
				zap.String("status", string(res.Status)),
				zap.Error(asPersistence("escalate conversation status", err)))
		} else {
			res.Escalated = escalated
			s.logger.Info("conversation flagged",
				zap.String("conversation_id", msg.ConversationID),
				zap.String("status", string(res.Status)),
				zap.Bool("escalated", escalated))
		}
	}

	marked := true
	if msg.ID != "" {
		if err := s.store.MarkClassified(ctx, msg.ID, at); err != nil {
			marked = false
			s.logger.Error("mark message classified failed",
				zap.String("message_id", msg.ID),
				zap.Error(asPersistence("mark message classified", err)))
		}
	}
	return res, marked, nil
}

// WithOpener decrypts trigger content before classification. Webhook
// records carry the stored column, which is ciphertext when encryption is on.
func (s *Service) WithOpener(o Opener) *Service {
	s.opener = o
	return s
}

// HandleTrigger classifies the message carried by a parsed trigger. Content
// that does not decrypt is classified as stored, since other clients write
// plaintext rows.
func (s *Service) HandleTrigger(ctx context.Context, t Trigger) (Result, error) {
	msg := t.Message()
	if s.opener != nil {
		if err := s.opener.DecryptMessage(&msg); err != nil {
			msg.Content = t.Content
			s.logger.Debug("trigger content not sealed; classifying as stored", zap.String("message_id", msg.ID))
		}
	}
	return s.ClassifyMessage(ctx, msg)
}

// Sweep classifies up to batch user messages that were stored without being
// classified. It returns how many messages were processed, including when ctx
// is cancelled part way. A message whose classified_at cannot be written is
// retried on later sweeps, up to maxMarkAttempts.
func (s *Service) Sweep(ctx context.Context, batch int) (int, error) {
	msgs, err := s.store.UnclassifiedMessages(ctx, batch)
	if err != nil {
		return 0, asPersistence("unclassified messages", err)
	}
	processed := 0
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if s.abandoned(msg.ID) {
			continue
		}
		_, marked, err := s.classify(ctx, msg)
		processed++
		if err != nil {
			s.logger.Warn("skipping message in sweep", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		s.recordMark(msg.ID, marked)
	}
	return processed, nil
}

func (s *Service) abandoned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markFailures[id] >= maxMarkAttempts
}

func (s *Service) recordMark(id string, marked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if marked {
		delete(s.markFailures, id)
		return
	}
	s.markFailures[id]++
	attempts := s.markFailures[id]
	if attempts >= maxMarkAttempts {
		s.logger.Error("giving up on message after repeated mark failures; it stays unclassified until restart",
			zap.String("message_id", id), zap.Int("attempts", attempts))
		return
	}
	s.logger.Warn("message will be retried on the next sweep",
		zap.String("message_id", id), zap.Int("attempts", attempts), zap.Int("max_attempts", maxMarkAttempts))
}

func asPersistence(op string, err error) error {
	if apperr.IsPersistence(err) {
		return err
	}
	return apperr.Persistence(op, err)
}
