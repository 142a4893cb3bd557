package models

import (
	"time"
)

// OpenEvent records one deduplicated beacon fetch against a tracked
// message. Rows are immutable once written.
type OpenEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MessageID     string    `gorm:"not null;size:32;index" json:"message_id"`
	OpenedAt      time.Time `gorm:"autoCreateTime;index" json:"opened_at"`
	SourceAddress string    `gorm:"size:64" json:"source_address,omitempty"`
	ClientAgent   string    `gorm:"size:512" json:"client_agent,omitempty"`

	// Relationships
	Message TrackedMessage `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for OpenEvent
func (OpenEvent) TableName() string {
	return "open_events"
}
