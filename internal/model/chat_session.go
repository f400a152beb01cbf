package model

import "time"

// ChatSession groups the messages of one user on one document. Nothing
// prevents several sessions per (user, document) pair; history reads resolve
// the most recently created one.
type ChatSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatHistory is the view returned to clients and cached in Redis:
// the resolved session plus its messages in ascending timestamp order.
type ChatHistory struct {
	SessionID uint          `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}
