package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"

	"docchat/internal/model"
	"docchat/internal/pkg/pdfinfo"
	"docchat/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidPDF       = errors.New("uploaded file is not a valid pdf")
	ErrFileTooLarge     = errors.New("uploaded file exceeds the size limit")
)

// DocumentBackend is the slice of the RAG backend the document lifecycle
// needs: ingestion on upload, index and file cleanup on deletion.
type DocumentBackend interface {
	UploadPDF(ctx context.Context, documentID, userID uint, filename string, data []byte) error
	DeleteCollection(ctx context.Context, collectionName string) error
	DeleteFile(ctx context.Context, filePath string) error
}

type DocumentService struct {
	docRepo      *repository.DocumentRepository
	backend      DocumentBackend
	historyCache HistoryCache
	publisher    EventPublisher
	tempDir      string
	maxSize      int64
}

type UploadInput struct {
	UserID   uint
	Filename string
	Data     []byte
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	backend DocumentBackend,
	historyCache HistoryCache,
	publisher EventPublisher,
	tempDir string,
	maxSizeMB int,
) *DocumentService {
	if tempDir == "" {
		tempDir = "temp_uploads"
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &DocumentService{
		docRepo:      docRepo,
		backend:      backend,
		historyCache: historyCache,
		publisher:    publisher,
		tempDir:      tempDir,
		maxSize:      int64(maxSizeMB) << 20,
	}
}

// Upload writes the PDF to a transient location, records its metadata and
// forwards the bytes plus the new document id to the backend for ingestion.
// The metadata write and the backend call are not transactional: if the
// backend rejects the file, the row stays and only the transient file is
// removed best-effort.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if int64(len(input.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	info, err := pdfinfo.Inspect(input.Data)
	if err != nil {
		return nil, ErrInvalidPDF
	}

	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "unnamed.pdf"
	}

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp upload dir failed: %w", err)
	}
	tempPath := filepath.Join(s.tempDir, fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), uuid.NewString(), filename))
	if err := os.WriteFile(tempPath, input.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write temp upload failed: %w", err)
	}

	doc := &model.Document{
		UserID:    input.UserID,
		Filename:  filename,
		FilePath:  tempPath,
		Title:     info.Title,
		PageCount: info.PageCount,
	}
	if err := s.docRepo.Create(doc); err != nil {
		removeTempFile(tempPath)
		return nil, err
	}

	// The backend names its collection after the document id it receives at
	// ingestion, so the stored identifier is that same id.
	doc.CollectionID = strconv.FormatUint(uint64(doc.ID), 10)
	if err := s.docRepo.SetCollectionID(doc.ID, doc.CollectionID); err != nil {
		removeTempFile(tempPath)
		return nil, err
	}

	if err := s.backend.UploadPDF(ctx, doc.ID, input.UserID, filename, input.Data); err != nil {
		removeTempFile(tempPath)
		return nil, fmt.Errorf("forward upload to backend failed: %w", err)
	}
	removeTempFile(tempPath)

	publishAudit(ctx, s.publisher, model.AuditEvent{
		UserID:   input.UserID,
		Action:   model.AuditDocumentUpload,
		Entity:   "document",
		EntityID: doc.ID,
		Detail:   filename,
	})

	return doc, nil
}

func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(userID)
}

// Delete attempts external cleanup first (index, then stored file), then
// removes the metadata row with its sessions and messages. External failures
// are logged and do not block the authoritative deletion; there is no retry,
// so orphaned backend state is accepted.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}

	doc, err := s.docRepo.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if doc.CollectionID != "" {
		if err := s.backend.DeleteCollection(ctx, doc.CollectionID); err != nil {
			golog.Warnf("delete backend collection %s failed: %v", doc.CollectionID, err)
		}
	}
	if doc.FilePath != "" {
		if err := s.backend.DeleteFile(ctx, doc.FilePath); err != nil {
			golog.Warnf("delete backend file %s failed: %v", doc.FilePath, err)
		}
	}

	if err := s.docRepo.DeleteCascade(doc.ID); err != nil {
		return err
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, userID, documentID)
		_ = s.historyCache.DeleteHistory(ctx, userID, documentID)
	}

	publishAudit(ctx, s.publisher, model.AuditEvent{
		UserID:   userID,
		Action:   model.AuditDocumentDeleted,
		Entity:   "document",
		EntityID: doc.ID,
		Detail:   doc.Filename,
	})

	return nil
}

func removeTempFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		golog.Warnf("remove temp upload %s failed: %v", path, err)
	}
}
