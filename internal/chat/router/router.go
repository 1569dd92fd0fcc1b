package router

import (
	"context"

	"team_match_service/internal/chat/app"
	"team_match_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register chat routes
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, chatHTTP *app.ChatHTTPHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	r.Get("/rooms", chatHTTP.ListRooms)
	r.Post("/rooms/direct", chatHTTP.CreateDirectRoom)
	r.Post("/rooms/project", chatHTTP.CreateProjectRoom)
	r.Put("/rooms/:id/members", chatHTTP.SyncMembers)
	r.Get("/rooms/:id/messages", chatHTTP.History)
	r.Post("/rooms/:id/messages", chatHTTP.SendMessage)
	r.Post("/rooms/:id/read", chatHTTP.MarkRead)
	r.Post("/rooms/:id/attachments", chatHTTP.UploadAttachment)
	r.Get("/attachments/url", chatHTTP.AttachmentURL)
	r.Get("/unread", chatHTTP.Unread)
}
