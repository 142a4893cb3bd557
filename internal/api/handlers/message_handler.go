package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/inboxsight/inboxsight-backend/internal/api/response"
	"github.com/inboxsight/inboxsight-backend/internal/models"
	"github.com/inboxsight/inboxsight-backend/internal/repository"
)

// MessageHandler handles tracked message HTTP requests
type MessageHandler struct {
	messageRepo   repository.MessageRepository
	publicBaseURL string
}

// NewMessageHandler creates a new MessageHandler. publicBaseURL is the
// externally reachable origin prefixed to every beacon URL.
func NewMessageHandler(messageRepo repository.MessageRepository, publicBaseURL string) *MessageHandler {
	return &MessageHandler{
		messageRepo:   messageRepo,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// CreateMessageRequest represents the request body for creating a tracked message
type CreateMessageRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
}

// CreatedMessageResponse is the create response: the stored message plus
// the derived beacon URL and a ready-to-embed HTML snippet.
type CreatedMessageResponse struct {
	models.TrackedMessage
	TrackingURL  string `json:"tracking_url"`
	TrackingHTML string `json:"tracking_html"`
}

// TrackingURL returns the beacon URL for a message id
func (h *MessageHandler) TrackingURL(id string) string {
	return fmt.Sprintf("%s/track/%s.png", h.publicBaseURL, id)
}

// trackingHTML wraps a beacon URL in a zero-size, non-rendering image reference
func trackingHTML(url string) string {
	return fmt.Sprintf(`<img src=%q width="1" height="1" style="display:none" alt="">`, url)
}

// Create handles POST /api/emails
func (h *MessageHandler) Create(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if strings.TrimSpace(req.Recipient) == "" {
		return response.BadRequest(c, "recipient is required")
	}

	message := &models.TrackedMessage{
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Sender:    req.Sender,
	}

	if err := h.messageRepo.Create(c.Request().Context(), message); err != nil {
		return response.InternalError(c, "failed to create tracked message")
	}

	url := h.TrackingURL(message.ID)
	return response.Created(c, CreatedMessageResponse{
		TrackedMessage: *message,
		TrackingURL:    url,
		TrackingHTML:   trackingHTML(url),
	})
}

// List handles GET /api/emails
func (h *MessageHandler) List(c echo.Context) error {
	items, err := h.messageRepo.ListWithCounts(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to list tracked messages")
	}

	return response.Success(c, items)
}

// Get handles GET /api/emails/:id
func (h *MessageHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "invalid message ID")
	}

	detail, err := h.messageRepo.GetWithOpens(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "tracked message not found")
		}
		return response.InternalError(c, "failed to get tracked message")
	}

	return response.Success(c, detail)
}
