package model

import "time"

// Document is the metadata of an uploaded PDF. The bytes themselves are
// handed to the external RAG backend at upload time; CollectionID names the
// backend's index for this document and FilePath the stored file, both used
// for best-effort cleanup on deletion.
type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Filename     string    `gorm:"size:256;not null" json:"filename"`
	FilePath     string    `gorm:"size:512" json:"-"`
	CollectionID string    `gorm:"size:64;index" json:"-"`
	Title        string    `gorm:"size:256" json:"title"`
	PageCount    int       `json:"page_count"`
	CreatedAt    time.Time `json:"created_at"`
}
