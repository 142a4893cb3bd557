package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/inboxsight/inboxsight-backend/internal/live"
	"github.com/inboxsight/inboxsight-backend/internal/logger"
	"github.com/inboxsight/inboxsight-backend/internal/pixel"
	"github.com/inboxsight/inboxsight-backend/internal/repository"
)

// BeaconHandler serves the tracking pixel. The response is identical for
// unknown ids, recorded opens, and deduplicated refetches: a 200 with
// the transparent pixel and no-store headers. Anything else would let a
// caller enumerate valid beacon ids.
type BeaconHandler struct {
	openRepo    repository.OpenRepository
	hub         *live.Hub
	securityLog *logger.SecurityLogger
	log         *slog.Logger
	dedupWindow time.Duration
}

// NewBeaconHandler creates a new BeaconHandler
func NewBeaconHandler(openRepo repository.OpenRepository, hub *live.Hub, securityLog *logger.SecurityLogger, log *slog.Logger, dedupWindow time.Duration) *BeaconHandler {
	return &BeaconHandler{
		openRepo:    openRepo,
		hub:         hub,
		securityLog: securityLog,
		log:         log,
		dedupWindow: dedupWindow,
	}
}

// Fetch handles GET /track/:id (the id carries a .png suffix)
func (h *BeaconHandler) Fetch(c echo.Context) error {
	id := strings.TrimSuffix(c.Param("id"), ".png")

	event, created, err := h.openRepo.RecordOpen(
		c.Request().Context(),
		id,
		c.RealIP(),
		c.Request().UserAgent(),
		h.dedupWindow,
	)
	switch {
	case err == nil:
		if created && h.hub != nil {
			h.hub.BroadcastOpen(event)
		}
	case errors.Is(err, repository.ErrNotFound):
		if h.securityLog != nil {
			h.securityLog.BeaconProbe(c.RealIP(), id)
		}
	default:
		// Storage faults are logged and swallowed; the pixel still ships
		if h.log != nil {
			h.log.Error("failed to record open", slog.String("message_id", id), slog.Any("error", err))
		}
	}

	pixel.WriteHeaders(c)
	return c.Blob(http.StatusOK, pixel.ContentType, pixel.PNG)
}
