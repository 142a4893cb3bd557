package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// TrackedMessage represents one outgoing message the user chose to track.
// The ID doubles as the beacon path component, so it must stay URL-safe
// and hard to enumerate.
type TrackedMessage struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Recipient string    `gorm:"not null;size:1024" json:"recipient"`
	Subject   string    `gorm:"size:998" json:"subject,omitempty"`
	Sender    string    `gorm:"size:255" json:"sender,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	Opens []OpenEvent `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for TrackedMessage
func (TrackedMessage) TableName() string {
	return "tracked_messages"
}

// NewBeaconID generates a fresh beacon identifier: 32 lowercase hex
// characters derived from a random UUID. No hyphens, so the id matches
// [0-9a-f]{32} and can be embedded directly in a URL path.
func NewBeaconID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		// uuid.NewRandom only fails when the system entropy source does;
		// fall back to reading crypto/rand directly.
		var b [16]byte
		if _, rerr := rand.Read(b[:]); rerr != nil {
			panic(rerr)
		}
		return hex.EncodeToString(b[:])
	}
	return hex.EncodeToString(u[:])
}

// MessageListItem is a lightweight version for list views, carrying the
// per-message open count computed by the store.
type MessageListItem struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	OpenCount int64     `json:"open_count"`
}

// MessageDetail is a read-side view of one message with its full open
// history, newest open first. Never persisted.
type MessageDetail struct {
	Message   TrackedMessage `json:"message"`
	Opens     []OpenEvent    `json:"opens"`
	OpenCount int            `json:"open_count"`
}
