package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/model"
	"docchat/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

type documentView struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title,omitempty"`
	PageCount  int       `json:"pageCount,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type DeleteDocumentRequest struct {
	UserID uint `json:"userId" binding:"required,gt=0"`
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// List serves GET /api/documents?userId=. The userId parameter must match
// the authenticated identity.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	requestedID, err := parseUintQuery(c, "userId")
	if err != nil || requestedID != userID {
		response.Error(c, http.StatusForbidden, "unauthorized user id")
		return
	}

	docs, err := h.documentService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "list documents failed")
		return
	}

	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, toDocumentView(d))
	}
	c.JSON(http.StatusOK, gin.H{"documents": views})
}

// Upload serves POST /api/upload-pdf with multipart fields "pdf" and
// "userId".
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "no pdf file uploaded")
		return
	}

	requestedID, err := strconv.ParseUint(c.PostForm("userId"), 10, 64)
	if err != nil || uint(requestedID) != userID {
		response.Error(c, http.StatusForbidden, "unauthorized or missing user id")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "read uploaded file failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "read uploaded file failed")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		UserID:   userID,
		Filename: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidPDF), errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "file uploaded and processing initiated",
		"documentId": doc.ID,
	})
}

// Delete serves DELETE /api/documents/:id with a JSON body carrying the
// caller's userId.
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	documentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	var req DeleteDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID != userID {
		response.Error(c, http.StatusBadRequest, "missing document id or unauthorized user")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), userID, uint(documentID)); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, "document not found or unauthorized")
		default:
			response.Error(c, http.StatusInternalServerError, "delete document failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document and associated data deleted"})
}

func toDocumentView(d model.Document) documentView {
	return documentView{
		ID:         d.ID,
		Filename:   d.Filename,
		Title:      d.Title,
		PageCount:  d.PageCount,
		UploadedAt: d.CreatedAt,
	}
}

func parseUintQuery(c *gin.Context, key string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
