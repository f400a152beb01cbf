package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/model"
	"docchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	UserID        uint   `json:"userId" binding:"required,gt=0"`
	DocumentID    uint   `json:"documentId" binding:"required,gt=0"`
	UserQuery     string `json:"userQuery" binding:"required"`
	ChatSessionID uint   `json:"chatSessionId"`
}

type messageView struct {
	ID        uint      `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask serves POST /api/chat. The resolved session id is echoed back so the
// client can pin subsequent messages to the same session.
func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "missing required chat parameters")
		return
	}
	if req.UserID != userID {
		response.Error(c, http.StatusBadRequest, "unauthorized user id")
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), app.AskInput{
		UserID:     userID,
		DocumentID: req.DocumentID,
		SessionID:  req.ChatSessionID,
		Query:      req.UserQuery,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":        result.Answer,
		"chatSessionId": result.SessionID,
	})
}

// History serves GET /api/chat-history?userId=&documentId=. With no prior
// session it returns an empty list and a null session id.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	requestedID, err := parseUintQuery(c, "userId")
	if err != nil || requestedID != userID {
		response.Error(c, http.StatusBadRequest, "missing required parameters or unauthorized user")
		return
	}
	documentID, err := parseUintQuery(c, "documentId")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, "missing required parameters or unauthorized user")
		return
	}

	history, err := h.chatService.History(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "fetch chat history failed")
		}
		return
	}

	var sessionID interface{}
	if history.SessionID != 0 {
		sessionID = history.SessionID
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":      toMessageViews(history.Messages),
		"chatSessionId": sessionID,
	})
}

func toMessageViews(messages []model.ChatMessage) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			ID:        m.ID,
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	return views
}
