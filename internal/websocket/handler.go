package websocket

import (
	"knowledge-workspace/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs the pumps for one connection; it returns when the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, sendBuffer)}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// Upgrade must run behind serverutils.SessionMiddleware.
func Upgrade() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		session, ok := serverutils.CurrentSession(ctx)
		if !ok {
			return fiber.ErrUnauthorized
		}
		ctx.Locals("ws_user_id", session.UserID)
		return ctx.Next()
	}
}

// Handler is the /api/ws endpoint.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, err := uuid.Parse(c.Locals("ws_user_id").(string))
		if err != nil {
			c.Close()
			return
		}
		ServeWs(hub, c, userID)
	})
}
