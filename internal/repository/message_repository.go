package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxsight/inboxsight-backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for tracked message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.TrackedMessage) error
	GetByID(ctx context.Context, id string) (*models.TrackedMessage, error)
	ListWithCounts(ctx context.Context) ([]models.MessageListItem, error)
	GetWithOpens(ctx context.Context, id string) (*models.MessageDetail, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create persists a new tracked message, generating a beacon id when the
// caller has not set one. Retries once on the (astronomically unlikely)
// id collision.
func (r *messageRepository) Create(ctx context.Context, message *models.TrackedMessage) error {
	if message.Recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if message.ID == "" {
		message.ID = models.NewBeaconID()
	}

	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			message.ID = models.NewBeaconID()
			if retry := r.db.WithContext(ctx).Create(message); retry.Error != nil {
				return fmt.Errorf("failed to create tracked message: %w", retry.Error)
			}
			return nil
		}
		return fmt.Errorf("failed to create tracked message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a tracked message by its beacon id
func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.TrackedMessage, error) {
	var message models.TrackedMessage
	result := r.db.WithContext(ctx).First(&message, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tracked message: %w", result.Error)
	}
	return &message, nil
}

// ListWithCounts retrieves all tracked messages newest first, each with
// its open count (zero when no opens exist).
func (r *messageRepository) ListWithCounts(ctx context.Context) ([]models.MessageListItem, error) {
	var results []models.MessageListItem

	query := `
		SELECT
			m.id,
			m.recipient,
			m.subject,
			m.sender,
			m.created_at,
			COALESCE((SELECT COUNT(*) FROM open_events o WHERE o.message_id = m.id), 0) AS open_count
		FROM tracked_messages m
		ORDER BY m.created_at DESC, m.id
	`

	if err := r.db.WithContext(ctx).Raw(query).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracked messages: %w", err)
	}

	return results, nil
}

// GetWithOpens retrieves one message together with its full open
// history, most recent open first.
func (r *messageRepository) GetWithOpens(ctx context.Context, id string) (*models.MessageDetail, error) {
	message, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var opens []models.OpenEvent
	result := r.db.WithContext(ctx).
		Where("message_id = ?", id).
		Order("opened_at DESC, id DESC").
		Find(&opens)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load open events: %w", result.Error)
	}

	return &models.MessageDetail{
		Message:   *message,
		Opens:     opens,
		OpenCount: len(opens),
	}, nil
}

// Stats computes the aggregate snapshot over all messages and opens.
// The open rate is zero, not an error, on an empty store.
func (r *messageRepository) Stats(ctx context.Context) (*models.Stats, error) {
	var row struct {
		TotalMessages  int64
		TotalOpens     int64
		MessagesOpened int64
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM tracked_messages) AS total_messages,
			(SELECT COUNT(*) FROM open_events) AS total_opens,
			(SELECT COUNT(DISTINCT message_id) FROM open_events) AS messages_opened
	`

	if err := r.db.WithContext(ctx).Raw(query).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return &models.Stats{
		TotalMessages:  row.TotalMessages,
		TotalOpens:     row.TotalOpens,
		MessagesOpened: row.MessagesOpened,
		OpenRate:       models.ComputeOpenRate(row.MessagesOpened, row.TotalMessages),
	}, nil
}
