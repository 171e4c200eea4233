package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/llm"
	"mindwell/internal/models"
	"mindwell/internal/risk"
)

const (
	maxMessageLength = 4000
	historyLimit     = 200
	defaultTitle     = "New conversation"
)

type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	Conversation(ctx context.Context, id string) (models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	Messages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

type Classifier interface {
	ClassifyMessage(ctx context.Context, msg models.Message) (risk.Result, error)
}

type Service struct {
	llm        llm.Client
	store      Store
	classifier Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(client llm.Client, store Store, classifier Classifier, logger *zap.Logger) *Service {
	return &Service{llm: client, store: store, classifier: classifier, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for message timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Reply struct {
	Response    string
	Intercepted bool
	// Recovered is set when the model failed and ConnectionTroubleMessage was returned.
	Recovered bool
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return apperr.Invalid("query", "required")
	}
	if len(query) > maxMessageLength {
		return apperr.Invalid("query", "too long")
	}
	return nil
}

// Respond answers a single message without persisting anything.
func (s *Service) Respond(ctx context.Context, query string) (Reply, error) {
	if err := validateQuery(query); err != nil {
		return Reply{}, err
	}
	if ShouldIntercept(query) {
		return Reply{Response: SafetyResponse(), Intercepted: true}, nil
	}
	out, err := s.llm.Complete(ctx, llm.Request{SystemPrompt: SystemPrompt, UserPrompt: query})
	if err != nil {
		s.logUpstream(err)
		return Reply{Response: ConnectionTroubleMessage, Recovered: true}, nil
	}
	return Reply{Response: out}, nil
}

// RespondStream is Respond with the reply delivered through onChunk as it
// arrives. When the model fails mid-stream the returned Response is
// ConnectionTroubleMessage, which is also sent as a final chunk.
func (s *Service) RespondStream(ctx context.Context, query string, onChunk func(string) error) (Reply, error) {
	if err := validateQuery(query); err != nil {
		return Reply{}, err
	}
	if ShouldIntercept(query) {
		if err := onChunk(SafetyResponse()); err != nil {
			return Reply{}, err
		}
		return Reply{Response: SafetyResponse(), Intercepted: true}, nil
	}

	var sinkErr error
	out, err := s.llm.Stream(ctx, llm.Request{SystemPrompt: SystemPrompt, UserPrompt: query}, func(chunk string) error {
		if err := onChunk(chunk); err != nil {
			sinkErr = err
			return err
		}
		return nil
	})
	if sinkErr != nil {
		return Reply{}, sinkErr
	}
	if err != nil {
		s.logUpstream(err)
		if err := onChunk(ConnectionTroubleMessage); err != nil {
			return Reply{}, err
		}
		return Reply{Response: ConnectionTroubleMessage, Recovered: true}, nil
	}
	return Reply{Response: out}, nil
}

func (s *Service) logUpstream(err error) {
	if !apperr.IsUpstream(err) {
		err = apperr.Upstream("llm", err)
	}
	s.logger.Warn("chat model call failed; sending recovery message", zap.Error(err))
}

func (s *Service) StartConversation(ctx context.Context, userID, title string) (models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	c := models.Conversation{UserID: userID, Title: title, Status: models.RiskNormal}
	if err := s.store.CreateConversation(ctx, &c); err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

func (s *Service) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// History returns the conversation's messages if userID owns it.
func (s *Service) History(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.Messages(ctx, conversationID, historyLimit)
}

type Exchange struct {
	Conversation models.Conversation `json:"conversation"`
	UserMessage  models.Message      `json:"user_message"`
	Reply        models.Message      `json:"reply"`
	Risk         risk.Result         `json:"risk"`
	Intercepted  bool                `json:"intercepted"`
}

// Send stores the user's message, classifies it, produces the assistant
// reply and stores that too.
func (s *Service) Send(ctx context.Context, userID, conversationID, content string) (Exchange, error) {
	return s.exchange(ctx, userID, conversationID, content, func(q string) (Reply, error) {
		return s.Respond(ctx, q)
	})
}

func (s *Service) SendStream(ctx context.Context, userID, conversationID, content string, onChunk func(string) error) (Exchange, error) {
	return s.exchange(ctx, userID, conversationID, content, func(q string) (Reply, error) {
		return s.RespondStream(ctx, q, onChunk)
	})
}

func (s *Service) exchange(ctx context.Context, userID, conversationID, content string, respond func(string) (Reply, error)) (Exchange, error) {
	if err := validateQuery(content); err != nil {
		return Exchange{}, err
	}
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return Exchange{}, err
	}

	userMsg := models.Message{
		ConversationID: conversationID,
		Role:           models.MessageRoleUser,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendMessage(ctx, &userMsg); err != nil {
		return Exchange{}, err
	}

	result, err := s.classifier.ClassifyMessage(ctx, userMsg)
	if err != nil {
		s.logger.Warn("classifying chat message failed", zap.String("message_id", userMsg.ID), zap.Error(err))
	}

	reply, err := respond(content)
	if err != nil {
		return Exchange{}, err
	}

	classifiedAt := s.now()
	assistantMsg := models.Message{
		ConversationID: conversationID,
		Role:           models.MessageRoleAssistant,
		Content:        reply.Response,
		CreatedAt:      classifiedAt,
		ClassifiedAt:   &classifiedAt,
	}
	if err := s.store.AppendMessage(ctx, &assistantMsg); err != nil {
		s.logger.Error("storing assistant reply failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}

	conv, err := s.store.Conversation(ctx, conversationID)
	if err != nil {
		return Exchange{}, err
	}
	return Exchange{
		Conversation: conv,
		UserMessage:  userMsg,
		Reply:        assistantMsg,
		Risk:         result,
		Intercepted:  reply.Intercepted,
	}, nil
}

func (s *Service) ownedConversation(ctx context.Context, userID, conversationID string) (models.Conversation, error) {
	conv, err := s.store.Conversation(ctx, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if conv.UserID != userID {
		return models.Conversation{}, apperr.ErrForbidden
	}
	return conv, nil
}

// IsClientError reports whether err is caused by the request rather than the server.
func IsClientError(err error) bool {
	return apperr.IsInvalid(err) || errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrForbidden)
}
