package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/golog"

	"docchat/internal/model"
	"docchat/internal/repository"
)

// AnswerProvider asks the external RAG backend to answer a question against
// one document's index.
type AnswerProvider interface {
	Chat(ctx context.Context, query string, documentID, userID uint) (string, error)
}

// HistoryCache mirrors the Redis history cache keyed by (user, document).
type HistoryCache interface {
	GetHistory(ctx context.Context, userID, documentID uint) (*model.ChatHistory, bool, error)
	SetHistory(ctx context.Context, userID, documentID uint, history model.ChatHistory) error
	DeleteHistory(ctx context.Context, userID, documentID uint) error
	MarkDirty(ctx context.Context, userID, documentID uint) error
	IsDirty(ctx context.Context, userID, documentID uint) (bool, error)
}

type ChatService struct {
	sessionRepo  *repository.ChatSessionRepository
	messageRepo  *repository.ChatMessageRepository
	backend      AnswerProvider
	historyCache HistoryCache
	publisher    EventPublisher
}

type AskInput struct {
	UserID     uint
	DocumentID uint
	SessionID  uint // 0 = let the service create or resolve one
	Query      string
}

type AskResult struct {
	Answer    string
	SessionID uint
}

func NewChatService(
	sessionRepo *repository.ChatSessionRepository,
	messageRepo *repository.ChatMessageRepository,
	backend AnswerProvider,
	historyCache HistoryCache,
	publisher EventPublisher,
) *ChatService {
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		backend:      backend,
		historyCache: historyCache,
		publisher:    publisher,
	}
}

// Ask appends the user's question to the resolved session, obtains an answer
// from the backend and appends it as the AI message. The user message is
// persisted before the backend call; if that call fails, the user message
// stays and no AI message is written. Repeated identical calls append
// repeated messages.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 || input.DocumentID == 0 {
		return nil, ErrInvalidInput
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.resolveSession(input)
	if err != nil {
		return nil, err
	}

	userMessage := &model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderUser,
		Content:   query,
	}
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, input.UserID, input.DocumentID)

	answer, err := s.backend.Chat(ctx, query, input.DocumentID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("rag backend answer failed: %w", err)
	}

	aiMessage := &model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderAI,
		Content:   answer,
	}
	if err := s.messageRepo.Create(aiMessage); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, input.UserID, input.DocumentID)

	publishAudit(ctx, s.publisher, model.AuditEvent{
		UserID:   input.UserID,
		Action:   model.AuditChatAsked,
		Entity:   "chat_session",
		EntityID: session.ID,
	})

	return &AskResult{Answer: answer, SessionID: session.ID}, nil
}

// resolveSession returns the supplied session when it belongs to this user
// and document, and otherwise creates a fresh one. A stale or foreign id is
// treated the same as no id at all.
func (s *ChatService) resolveSession(input AskInput) (*model.ChatSession, error) {
	if input.SessionID != 0 {
		session, err := s.sessionRepo.GetOwned(input.SessionID, input.UserID, input.DocumentID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}

	session := &model.ChatSession{
		UserID:     input.UserID,
		DocumentID: input.DocumentID,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// History returns the messages of the most recently created session for the
// pair, ascending by timestamp. When the user never chatted with the
// document, SessionID is zero and Messages empty.
func (s *ChatService) History(ctx context.Context, userID, documentID uint) (*model.ChatHistory, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, userID, documentID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, userID, documentID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	history := &model.ChatHistory{Messages: []model.ChatMessage{}}

	session, err := s.sessionRepo.GetLatest(userID, documentID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		messages, err := s.messageRepo.ListBySessionID(session.ID)
		if err != nil {
			return nil, err
		}
		history.SessionID = session.ID
		history.Messages = messages
	}

	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, userID, documentID); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, userID, documentID, *history); err != nil {
				golog.Debugf("cache chat history failed: %v", err)
			}
		}
	}
	return history, nil
}

func (s *ChatService) invalidateHistory(ctx context.Context, userID, documentID uint) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, userID, documentID)
	_ = s.historyCache.DeleteHistory(ctx, userID, documentID)
}
