package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/realtime"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	httpHandler "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/presentation/http"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(
	r *gin.Engine,
	pool *pgxpool.Pool,
	users userrepo.UserDirectory,
	push usecase.Pusher,
	notif usecase.Notifier,
	registry *realtime.Registry,
	router *realtime.Router,
	supervisor *realtime.Supervisor,
) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, users, push, notif, registry, router, supervisor)
}
