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

// ListChatsController returns all conversations a user participates in (one
// controller per endpoint).
type ListChatsController struct {
	UC *usecase.ListChatsUseCase
}

func NewListChatsController(pool *pgxpool.Pool, users userrepo.UserDirectory) *ListChatsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListChatsController{UC: usecase.NewListChatsUseCase(repo, users)}
}

func (h *ListChatsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		views, err := h.UC.Execute(ctx, usecase.ListChatsInput{UserID: userID})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chats": views,
			"count": len(views),
		})
	}
}
