package router

import (
	"context"

	"team_match_service/internal/notification/app"
	"team_match_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register notification routes
func RegisterRoutes(r *fiber.App, notifyWebsocket *app.NotificationWebsocketHandler, notifyHTTP *app.NotificationHTTPHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		notifyWebsocket.HandleConnection(context.Background(), c)
	}))

	r.Get("/notifications", notifyHTTP.List)
	r.Get("/notifications/unread_count", notifyHTTP.UnreadCount)
	r.Post("/notifications/read_all", notifyHTTP.MarkAllRead)
	r.Post("/notifications/:id/read", notifyHTTP.MarkRead)
}
