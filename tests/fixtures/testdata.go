package fixtures

import (
	"time"

	"github.com/inboxsight/inboxsight-backend/internal/models"
)

// TrackedMessageBuilder creates test TrackedMessage instances with fluent API
type TrackedMessageBuilder struct {
	message models.TrackedMessage
}

// NewTrackedMessageBuilder creates a new TrackedMessageBuilder with sensible defaults
func NewTrackedMessageBuilder() *TrackedMessageBuilder {
	return &TrackedMessageBuilder{
		message: models.TrackedMessage{
			ID:        "00112233445566778899aabbccddeeff",
			Recipient: "recipient@example.com",
			Subject:   "Test subject",
			Sender:    "sender@example.com",
			CreatedAt: time.Now(),
		},
	}
}

// WithID sets the beacon id
func (b *TrackedMessageBuilder) WithID(id string) *TrackedMessageBuilder {
	b.message.ID = id
	return b
}

// WithRecipient sets the recipient
func (b *TrackedMessageBuilder) WithRecipient(recipient string) *TrackedMessageBuilder {
	b.message.Recipient = recipient
	return b
}

// WithSubject sets the subject
func (b *TrackedMessageBuilder) WithSubject(subject string) *TrackedMessageBuilder {
	b.message.Subject = subject
	return b
}

// WithSender sets the sender
func (b *TrackedMessageBuilder) WithSender(sender string) *TrackedMessageBuilder {
	b.message.Sender = sender
	return b
}

// WithCreatedAt sets the created timestamp
func (b *TrackedMessageBuilder) WithCreatedAt(t time.Time) *TrackedMessageBuilder {
	b.message.CreatedAt = t
	return b
}

// Build returns the constructed TrackedMessage
func (b *TrackedMessageBuilder) Build() *models.TrackedMessage {
	return &b.message
}

// BuildValue returns the constructed TrackedMessage as a value (not pointer)
func (b *TrackedMessageBuilder) BuildValue() models.TrackedMessage {
	return b.message
}

// OpenEventBuilder creates test OpenEvent instances with fluent API
type OpenEventBuilder struct {
	event models.OpenEvent
}

// NewOpenEventBuilder creates a new OpenEventBuilder with sensible defaults
func NewOpenEventBuilder() *OpenEventBuilder {
	return &OpenEventBuilder{
		event: models.OpenEvent{
			ID:            1,
			MessageID:     "00112233445566778899aabbccddeeff",
			OpenedAt:      time.Now(),
			SourceAddress: "203.0.113.10",
			ClientAgent:   "TestMailClient/1.0",
		},
	}
}

// WithID sets the event ID
func (b *OpenEventBuilder) WithID(id uint) *OpenEventBuilder {
	b.event.ID = id
	return b
}

// WithMessageID sets the parent message beacon id
func (b *OpenEventBuilder) WithMessageID(id string) *OpenEventBuilder {
	b.event.MessageID = id
	return b
}

// WithOpenedAt sets the open timestamp
func (b *OpenEventBuilder) WithOpenedAt(t time.Time) *OpenEventBuilder {
	b.event.OpenedAt = t
	return b
}

// WithSourceAddress sets the source address
func (b *OpenEventBuilder) WithSourceAddress(addr string) *OpenEventBuilder {
	b.event.SourceAddress = addr
	return b
}

// WithClientAgent sets the client agent string
func (b *OpenEventBuilder) WithClientAgent(agent string) *OpenEventBuilder {
	b.event.ClientAgent = agent
	return b
}

// Build returns the constructed OpenEvent
func (b *OpenEventBuilder) Build() *models.OpenEvent {
	return &b.event
}

// BuildValue returns the constructed OpenEvent as a value (not pointer)
func (b *OpenEventBuilder) BuildValue() models.OpenEvent {
	return b.event
}
