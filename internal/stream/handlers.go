package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Initial returns the payload sent to a client right after it connects, and
// false when the session does not exist.
type Initial func(sessionID string) ([]byte, bool)

// RegisterRoutes mounts the snapshot stream. initial may be nil, in which case
// clients only receive updates published after they connect.
func RegisterRoutes(r fiber.Router, hub *Hub, initial Initial) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		var first []byte
		if initial != nil {
			payload, ok := initial(sessionID)
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session"))
				return
			}
			first = payload
		}

		client := hub.Register(sessionID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			if first != nil {
				if err := c.WriteMessage(websocket.TextMessage, first); err != nil {
					return
				}
			}
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
