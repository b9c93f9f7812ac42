package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/realtime"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/presentation/controller"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes.
func RegisterRoutes(
	g *gin.RouterGroup,
	pool *pgxpool.Pool,
	users userrepo.UserDirectory,
	push usecase.Pusher,
	notif usecase.Notifier,
	registry *realtime.Registry,
	router *realtime.Router,
	supervisor *realtime.Supervisor,
) {
	createCtl := controller.NewCreateChatController(pool, users)
	sendMsgCtl := controller.NewSendMessageController(pool, users, push, notif)
	getChatCtl := controller.NewGetChatController(pool, users)
	listChatsCtl := controller.NewListChatsController(pool, users)
	deleteChatCtl := controller.NewDeleteChatController(pool)
	addUnreadCtl := controller.NewAddUnreadController(users)
	removeUnreadCtl := controller.NewRemoveUnreadController(users)
	listUnreadCtl := controller.NewListUnreadController(users)
	socketCtl := controller.NewChatSocketController(registry, router, supervisor)

	// POST /api/v1/chat -> create or fetch the conversation for a pair
	g.POST("/chat", createCtl.Handle())

	// POST /api/v1/chat/messages -> send a message to a counterparty
	g.POST("/chat/messages", sendMsgCtl.Handle())

	// GET /api/v1/chat/:chatId -> fetch a conversation with its messages
	g.GET("/chat/:chatId", getChatCtl.Handle())

	// GET /api/v1/chat/user/:userId -> list a user's conversations
	g.GET("/chat/user/:userId", listChatsCtl.Handle())

	// DELETE /api/v1/chat/:chatId -> delete a conversation
	g.DELETE("/chat/:chatId", deleteChatCtl.Handle())

	// POST /api/v1/users/unread -> raise an unread flag
	g.POST("/users/unread", addUnreadCtl.Handle())

	// DELETE /api/v1/users/unread -> clear an unread flag
	g.DELETE("/users/unread", removeUnreadCtl.Handle())

	// GET /api/v1/users/:userId/unread -> list unread counterparties
	g.GET("/users/:userId/unread", listUnreadCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint for realtime delivery
	g.GET("/chat/ws", socketCtl.Handle())
}
