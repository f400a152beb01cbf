package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"docchat/internal/model"
	"docchat/internal/repository"
)

func newDocumentService(t *testing.T, backend *stubBackend) (*DocumentService, *gorm.DB, string) {
	t.Helper()
	db := newTestDB(t)
	tempDir := t.TempDir()
	svc := NewDocumentService(
		repository.NewDocumentRepository(db),
		backend,
		nil,
		nil,
		tempDir,
		10,
	)
	return svc, db, tempDir
}

func TestUploadPersistsMetadataAndForwards(t *testing.T) {
	backend := &stubBackend{}
	svc, db, tempDir := newDocumentService(t, backend)

	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "report.pdf",
		Data:     minimalPDF(),
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, strconv.FormatUint(uint64(doc.ID), 10), doc.CollectionID)
	require.Len(t, backend.uploadedDocIDs, 1)
	assert.Equal(t, doc.ID, backend.uploadedDocIDs[0])

	var stored model.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Equal(t, uint(1), stored.UserID)
	assert.Equal(t, doc.CollectionID, stored.CollectionID)

	// The transient copy is removed once the backend accepted the file.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadBackendFailureKeepsMetadata(t *testing.T) {
	backend := &stubBackend{uploadErr: errBackendDown}
	svc, db, tempDir := newDocumentService(t, backend)

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "report.pdf",
		Data:     minimalPDF(),
	})
	require.Error(t, err)

	// Metadata stays (accepted inconsistency); the temp file does not.
	var count int64
	require.NoError(t, db.Model(&model.Document{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	svc, db, _ := newDocumentService(t, &stubBackend{})

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "notes.txt",
		Data:     []byte("plain text"),
	})
	assert.ErrorIs(t, err, ErrInvalidPDF)

	var count int64
	require.NoError(t, db.Model(&model.Document{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	db := newTestDB(t)
	svc := NewDocumentService(repository.NewDocumentRepository(db), &stubBackend{}, nil, nil, t.TempDir(), 1)

	big := make([]byte, 2<<20)
	copy(big, "%PDF-1.4")
	_, err := svc.Upload(context.Background(), UploadInput{UserID: 1, Filename: "big.pdf", Data: big})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadSanitizesFilename(t *testing.T) {
	svc, _, _ := newDocumentService(t, &stubBackend{})

	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: filepath.Join("..", "..", "etc", "evil.pdf"),
		Data:     minimalPDF(),
	})
	require.NoError(t, err)
	assert.Equal(t, "evil.pdf", doc.Filename)
}

func TestListReturnsOnlyOwnDocumentsNewestFirst(t *testing.T) {
	svc, db, _ := newDocumentService(t, &stubBackend{})
	ctx := context.Background()

	first, err := svc.Upload(ctx, UploadInput{UserID: 1, Filename: "first.pdf", Data: minimalPDF()})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, UploadInput{UserID: 1, Filename: "second.pdf", Data: minimalPDF()})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Document{}).Where("id = ?", first.ID).
		Update("created_at", second.CreatedAt.Add(-time.Hour)).Error)
	_, err = svc.Upload(ctx, UploadInput{UserID: 2, Filename: "other.pdf", Data: minimalPDF()})
	require.NoError(t, err)

	docs, err := svc.List(1)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "second.pdf", docs[0].Filename)
	assert.Equal(t, "first.pdf", docs[1].Filename)
}

func TestDeleteCascadesAndCleansBackend(t *testing.T) {
	backend := &stubBackend{}
	svc, db, _ := newDocumentService(t, backend)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadInput{UserID: 1, Filename: "report.pdf", Data: minimalPDF()})
	require.NoError(t, err)

	chatSvc := NewChatService(
		repository.NewChatSessionRepository(db),
		repository.NewChatMessageRepository(db),
		backend,
		nil,
		nil,
	)
	_, err = chatSvc.Ask(ctx, AskInput{UserID: 1, DocumentID: doc.ID, Query: "hello?"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, doc.ID))

	require.Len(t, backend.deletedCollections, 1)
	assert.Equal(t, doc.CollectionID, backend.deletedCollections[0])
	require.Len(t, backend.deletedFiles, 1)
	assert.Equal(t, doc.FilePath, backend.deletedFiles[0])

	docs, err := svc.List(1)
	require.NoError(t, err)
	assert.Empty(t, docs)

	var sessions, messages int64
	require.NoError(t, db.Model(&model.ChatSession{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&model.ChatMessage{}).Count(&messages).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, messages)

	history, err := chatSvc.History(ctx, 1, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, history.SessionID)
	assert.Empty(t, history.Messages)
}

func TestDeleteTargetsCollectionKnownToBackend(t *testing.T) {
	backend := &stubBackend{}
	svc, _, _ := newDocumentService(t, backend)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadInput{UserID: 1, Filename: "report.pdf", Data: minimalPDF()})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, doc.ID))

	// The backend only ever learns document ids at ingestion, so cleanup
	// must reference one of those.
	require.Len(t, backend.uploadedDocIDs, 1)
	require.Len(t, backend.deletedCollections, 1)
	assert.Equal(t,
		strconv.FormatUint(uint64(backend.uploadedDocIDs[0]), 10),
		backend.deletedCollections[0])
}

func TestDeleteRejectsForeignDocument(t *testing.T) {
	svc, db, _ := newDocumentService(t, &stubBackend{})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadInput{UserID: 1, Filename: "mine.pdf", Data: minimalPDF()})
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Document{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
