package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
)

// DeleteChatController removes a conversation (one controller per endpoint).
type DeleteChatController struct {
	UC *usecase.DeleteChatUseCase
}

func NewDeleteChatController(pool *pgxpool.Pool) *DeleteChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &DeleteChatController{UC: usecase.NewDeleteChatUseCase(repo)}
}

func (h *DeleteChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.DeleteChatInput{ChatID: chatID}); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
				return
			}
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
