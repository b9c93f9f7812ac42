package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// GetChatController fetches one conversation with its messages (one
// controller per endpoint). Passing user_id identifies the viewer, which
// clears their unread flag for the counterparty.
type GetChatController struct {
	UC *usecase.GetChatUseCase
}

func NewGetChatController(pool *pgxpool.Pool, users userrepo.UserDirectory) *GetChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &GetChatController{UC: usecase.NewGetChatUseCase(repo, users)}
}

func (h *GetChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		limit := 0
		offset := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		view, err := h.UC.Execute(ctx, usecase.GetChatInput{
			ChatID:   chatID,
			ViewerID: c.Query("user_id"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
				return
			}
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"chat": view})
	}
}
