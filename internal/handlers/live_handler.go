package handlers

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/live"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type LiveHandler struct {
	server *live.Server
	// ctx ends every open connection when the process shuts down.
	ctx context.Context
}

func NewLiveHandler(ctx context.Context, server *live.Server) *LiveHandler {
	return &LiveHandler{server: server, ctx: ctx}
}

// Upgrade rejects plain HTTP requests and remembers the host the client
// connected to for tenant resolution.
func (h *LiveHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("live_host", c.Hostname())
	return c.Next()
}

func (h *LiveHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		host, _ := conn.Locals("live_host").(string)
		slog.Debug("live connection opened", "host", host)
		h.server.Serve(h.ctx, conn, host)
		slog.Debug("live connection closed", "host", host)
	})
}
