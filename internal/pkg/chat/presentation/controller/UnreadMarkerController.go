package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// Unread-marker endpoints. Small enough that the three controllers share a
// file.

type unreadMarkerRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	SenderID    string `json:"sender_id" binding:"required"`
}

// AddUnreadController raises the unread flag for a recipient.
type AddUnreadController struct {
	UC *usecase.MarkUnreadUseCase
}

func NewAddUnreadController(users userrepo.UserDirectory) *AddUnreadController {
	return &AddUnreadController{UC: usecase.NewMarkUnreadUseCase(users)}
}

func (h *AddUnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unreadMarkerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.UnreadMarkerInput{
			RecipientID: req.RecipientID,
			SenderID:    req.SenderID,
		}); err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RemoveUnreadController clears the unread flag for a recipient.
type RemoveUnreadController struct {
	UC *usecase.ClearUnreadUseCase
}

func NewRemoveUnreadController(users userrepo.UserDirectory) *RemoveUnreadController {
	return &RemoveUnreadController{UC: usecase.NewClearUnreadUseCase(users)}
}

func (h *RemoveUnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unreadMarkerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.UnreadMarkerInput{
			RecipientID: req.RecipientID,
			SenderID:    req.SenderID,
		}); err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ListUnreadController returns the sender ids flagged unread for a user.
type ListUnreadController struct {
	UC *usecase.ListUnreadUseCase
}

func NewListUnreadController(users userrepo.UserDirectory) *ListUnreadController {
	return &ListUnreadController{UC: usecase.NewListUnreadUseCase(users)}
}

func (h *ListUnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		unread, err := h.UC.Execute(ctx, userID)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		if unread == nil {
			unread = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"unread_messages": unread})
	}
}
