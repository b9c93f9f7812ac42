package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/adapter"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// CreateChatController handles the chat creation endpoint
// One controller per endpoint

type CreateChatController struct {
	UC *usecase.CreateChatUseCase
}

func NewCreateChatController(pool *pgxpool.Pool, users userrepo.UserDirectory) *CreateChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &CreateChatController{UC: usecase.NewCreateChatUseCase(repo, users)}
}

type createChatRequest struct {
	HostID      string `json:"host_id" binding:"required"`
	ApplicantID string `json:"applicant_id" binding:"required"`
}

func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.CreateChatInput{
			HostID:      req.HostID,
			ApplicantID: req.ApplicantID,
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         conv.ID,
			"host":       conv.Host,
			"applicant":  conv.Applicant,
			"created_at": conv.CreatedAt,
		})
	}
}

// statusForError maps use-case failures onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, userrepo.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrSameParticipant),
		errors.Is(err, chat.ErrMissingParticipant),
		errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
