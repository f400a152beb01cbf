package model

import "time"

const (
	AuditUserRegistered  = "user.registered"
	AuditDocumentUpload  = "document.uploaded"
	AuditDocumentDeleted = "document.deleted"
	AuditChatAsked       = "chat.asked"
)

// AuditEvent records a domain action. Events travel through the audit queue
// and are persisted by the audit worker, so request handling never blocks on
// the audit trail.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Entity    string    `gorm:"size:32" json:"entity"`
	EntityID  uint      `json:"entity_id"`
	Detail    string    `gorm:"size:512" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
