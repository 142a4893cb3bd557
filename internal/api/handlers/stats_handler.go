package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/inboxsight/inboxsight-backend/internal/api/response"
	"github.com/inboxsight/inboxsight-backend/internal/repository"
)

// StatsHandler serves the aggregate snapshot polled by the dashboard
type StatsHandler struct {
	messageRepo repository.MessageRepository
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(messageRepo repository.MessageRepository) *StatsHandler {
	return &StatsHandler{messageRepo: messageRepo}
}

// Get handles GET /api/stats
func (h *StatsHandler) Get(c echo.Context) error {
	stats, err := h.messageRepo.Stats(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to compute stats")
	}

	return response.Success(c, stats)
}
