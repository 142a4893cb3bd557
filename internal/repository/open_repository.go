package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/inboxsight/inboxsight-backend/internal/models"
	"gorm.io/gorm"
)

// OpenRepository defines the interface for open event data access
type OpenRepository interface {
	// RecordOpen registers a beacon fetch. It returns the stored event and
	// whether a new row was inserted. A fetch within the dedup window for
	// the same (messageID, sourceAddress) returns the prior event
	// unchanged. ErrNotFound is returned when the message does not exist;
	// the HTTP boundary must not surface that to the beacon requester.
	RecordOpen(ctx context.Context, messageID, sourceAddress, clientAgent string, window time.Duration) (*models.OpenEvent, bool, error)
}

// dedupStripes is the number of lock stripes serializing the
// check-then-act in RecordOpen. Concurrent fetches for the same
// (messageID, sourceAddress) always hash to the same stripe.
const dedupStripes = 64

// openRepository implements OpenRepository using GORM
type openRepository struct {
	db    *gorm.DB
	locks [dedupStripes]sync.Mutex
}

// NewOpenRepository creates a new OpenRepository instance
func NewOpenRepository(db *gorm.DB) OpenRepository {
	return &openRepository{db: db}
}

// lockFor returns the stripe mutex for a dedup key
func (r *openRepository) lockFor(messageID, sourceAddress string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(messageID))
	h.Write([]byte{0})
	h.Write([]byte(sourceAddress))
	return &r.locks[h.Sum32()%dedupStripes]
}

// RecordOpen performs the dedup check and insert under a per-key lock so
// two near-simultaneous fetches for the same key insert at most one row
// per window.
func (r *openRepository) RecordOpen(ctx context.Context, messageID, sourceAddress, clientAgent string, window time.Duration) (*models.OpenEvent, bool, error) {
	mu := r.lockFor(messageID, sourceAddress)
	mu.Lock()
	defer mu.Unlock()

	var event *models.OpenEvent
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var message models.TrackedMessage
		if err := tx.Select("id").First(&message, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to resolve message: %w", err)
		}

		var prior models.OpenEvent
		cutoff := time.Now().Add(-window)
		err := tx.Where("message_id = ? AND source_address = ? AND opened_at > ?", messageID, sourceAddress, cutoff).
			Order("opened_at DESC, id DESC").
			First(&prior).Error
		if err == nil {
			event = &prior
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check dedup window: %w", err)
		}

		fresh := models.OpenEvent{
			MessageID:     messageID,
			SourceAddress: sourceAddress,
			ClientAgent:   clientAgent,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return fmt.Errorf("failed to record open: %w", err)
		}
		event = &fresh
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return event, created, nil
}
