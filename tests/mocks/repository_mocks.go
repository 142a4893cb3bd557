package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/inboxsight/inboxsight-backend/internal/models"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new tracked message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.TrackedMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetByID retrieves a tracked message by its beacon id
func (m *MockMessageRepository) GetByID(ctx context.Context, id string) (*models.TrackedMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedMessage), args.Error(1)
}

// ListWithCounts retrieves all tracked messages with open counts
func (m *MockMessageRepository) ListWithCounts(ctx context.Context) ([]models.MessageListItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageListItem), args.Error(1)
}

// GetWithOpens retrieves one message with its open history
func (m *MockMessageRepository) GetWithOpens(ctx context.Context, id string) (*models.MessageDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageDetail), args.Error(1)
}

// Stats computes the aggregate snapshot
func (m *MockMessageRepository) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

// MockOpenRepository implements repository.OpenRepository
type MockOpenRepository struct {
	mock.Mock
}

// RecordOpen registers a beacon fetch
func (m *MockOpenRepository) RecordOpen(ctx context.Context, messageID, sourceAddress, clientAgent string, window time.Duration) (*models.OpenEvent, bool, error) {
	args := m.Called(ctx, messageID, sourceAddress, clientAgent, window)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.OpenEvent), args.Bool(1), args.Error(2)
}
