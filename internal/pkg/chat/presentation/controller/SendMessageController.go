package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/adapter"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// SendMessageController handles the send-message endpoint only (one controller per endpoint)
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
}

func NewSendMessageController(pool *pgxpool.Pool, users userrepo.UserDirectory, push usecase.Pusher, notif usecase.Notifier) *SendMessageController {
	repo := adapter.NewPgChatRepository(pool)
	return &SendMessageController{UC: usecase.NewSendMessageUseCase(repo, users, push, notif)}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	SenderID    string `json:"sender_id" binding:"required"`
	RecipientID string `json:"recipient_id" binding:"required"`
	Text        string `json:"text"`
	File        string `json:"file"`
}

// Handle persists the message on the reliable path; the use case pushes it to
// any live recipient window afterwards.
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Text:        req.Text,
			File:        req.File,
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": gin.H{
				"id":        msg.ID,
				"sender":    msg.Sender,
				"recipient": msg.Recipient,
				"text":      msg.Text,
				"file":      msg.File,
				"createdAt": msg.CreatedAt,
			},
		})
	}
}
