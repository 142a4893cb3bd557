package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/inboxsight/inboxsight-backend/internal/live"
)

// WSHandler upgrades dashboard connections onto the live open-event feed
type WSHandler struct {
	hub *live.Hub
	log *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *live.Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

// Connect handles GET /ws
func (h *WSHandler) Connect(c echo.Context) error {
	upgrader := live.NewSecureUpgrader(h.log)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		return nil
	}

	client := live.NewClient(h.hub, conn, h.log)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
