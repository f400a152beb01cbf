package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docchat/internal/model"
)

type ChatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

func (r *ChatSessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

// GetOwned looks a session up constrained by owner and document, so a
// session id can never be replayed against another user's document.
func (r *ChatSessionRepository) GetOwned(id, userID, documentID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ? AND user_id = ? AND document_id = ?", id, userID, documentID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

// GetLatest returns the most recently created session for the pair, or nil
// when the user has never chatted with the document.
func (r *ChatSessionRepository) GetLatest(userID, documentID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("user_id = ? AND document_id = ?", userID, documentID).
		Order("created_at DESC").
		Order("id DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest chat session failed: %w", err)
	}
	return &session, nil
}
