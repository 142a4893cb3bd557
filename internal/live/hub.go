// Package live pushes open events to dashboard clients over WebSocket
// as they are recorded. Polling the REST surface remains the primary
// contract; this feed is an optimization for dashboards that want
// sub-interval latency.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/inboxsight/inboxsight-backend/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeOpenEvent   MessageType = "open_event"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"message_id,omitempty"`
	Event     interface{} `json:"event,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// OpenEventPayload is the wire shape of a broadcast open event
type OpenEventPayload struct {
	ID            uint   `json:"id"`
	MessageID     string `json:"message_id"`
	OpenedAt      string `json:"opened_at"`
	SourceAddress string `json:"source_address,omitempty"`
	ClientAgent   string `json:"client_agent,omitempty"`
}

// Hub maintains the set of active clients and broadcasts open events.
// Clients that never subscribe to a specific message id receive every
// event (the dashboard firehose); subscribed clients receive only the
// events for their message ids.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Message subscriptions: beacon message id -> set of clients
	subscriptions map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscribe to a message id
	subscribe chan *subscriptionRequest

	// Unsubscribe from a message id
	unsubscribeMessage chan *subscriptionRequest

	// Broadcast recorded opens
	broadcast chan *models.OpenEvent

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

type subscriptionRequest struct {
	client    *Client
	messageID string
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		subscriptions:      make(map[string]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		subscribe:          make(chan *subscriptionRequest),
		unsubscribeMessage: make(chan *subscriptionRequest),
		broadcast:          make(chan *models.OpenEvent, 256),
		logger:             logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("live client registered")
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.messageID] == nil {
				h.subscriptions[req.messageID] = make(map[*Client]bool)
			}
			if !h.subscriptions[req.messageID][req.client] {
				h.subscriptions[req.messageID][req.client] = true
				req.client.subscriptions++
			}
			h.mu.Unlock()

		case req := <-h.unsubscribeMessage:
			h.mu.Lock()
			if subs := h.subscriptions[req.messageID]; subs[req.client] {
				delete(subs, req.client)
				req.client.subscriptions--
				if len(subs) == 0 {
					delete(h.subscriptions, req.messageID)
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// deliver fans an open event out to its audience
func (h *Hub) deliver(event *models.OpenEvent) {
	payload, err := json.Marshal(WSMessage{
		Type:      MessageTypeOpenEvent,
		MessageID: event.MessageID,
		Event: OpenEventPayload{
			ID:            event.ID,
			MessageID:     event.MessageID,
			OpenedAt:      event.OpenedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			SourceAddress: event.SourceAddress,
			ClientAgent:   event.ClientAgent,
		},
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal open event", slog.Any("error", err))
		}
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.subscriptions[event.MessageID]
	for client := range h.clients {
		if client.subscriptions > 0 && !subscribers[client] {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the event rather than block the hub
		}
	}
}

// removeClient drops a client and all its subscriptions
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for messageID, subs := range h.subscriptions {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, messageID)
		}
	}
	client.subscriptions = 0
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to one message id
func (h *Hub) Subscribe(client *Client, messageID string) {
	h.subscribe <- &subscriptionRequest{client: client, messageID: messageID}
}

// Unsubscribe removes a client's subscription to one message id
func (h *Hub) Unsubscribe(client *Client, messageID string) {
	h.unsubscribeMessage <- &subscriptionRequest{client: client, messageID: messageID}
}

// BroadcastOpen queues a freshly recorded open event for delivery.
// Never blocks the beacon path.
func (h *Hub) BroadcastOpen(event *models.OpenEvent) {
	select {
	case h.broadcast <- event:
	default:
		if h.logger != nil {
			h.logger.Warn("live broadcast queue full, dropping open event",
				slog.String("message_id", event.MessageID))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
