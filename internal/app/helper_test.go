package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"docchat/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled connection to :memory: would see a different empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.AuditEvent{},
	))
	return db
}

// stubBackend satisfies both AnswerProvider and DocumentBackend and records
// every call so tests can assert the exact interaction.
type stubBackend struct {
	answer    string
	chatErr   error
	uploadErr error

	chatCalls          int
	uploadedDocIDs     []uint
	deletedCollections []string
	deletedFiles       []string
}

func (s *stubBackend) Chat(_ context.Context, _ string, _, _ uint) (string, error) {
	s.chatCalls++
	if s.chatErr != nil {
		return "", s.chatErr
	}
	if s.answer == "" {
		return "stub answer", nil
	}
	return s.answer, nil
}

func (s *stubBackend) UploadPDF(_ context.Context, documentID, _ uint, _ string, _ []byte) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploadedDocIDs = append(s.uploadedDocIDs, documentID)
	return nil
}

func (s *stubBackend) DeleteCollection(_ context.Context, collectionName string) error {
	s.deletedCollections = append(s.deletedCollections, collectionName)
	return nil
}

func (s *stubBackend) DeleteFile(_ context.Context, filePath string) error {
	s.deletedFiles = append(s.deletedFiles, filePath)
	return nil
}

var errBackendDown = errors.New("backend down")

// minimalPDF builds the smallest classic-xref PDF: one empty page.
func minimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n",
	}
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	xrefPos := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefPos))
	return buf.Bytes()
}
