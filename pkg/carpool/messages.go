package carpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

const maxMessageLength = 2000

// MessageService handles carpool chat.
type MessageService struct {
	store  Store
	logger *slog.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(store Store, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{store: store, logger: logger}
}

// Send posts a message to the carpool.
func (s *MessageService) Send(ctx context.Context, userID, carpoolID int64, content string) (*domain.Message, error) {
	content = cleanText(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", domain.ErrInvalidRequest, maxMessageLength)
	}

	if _, err := s.store.Carpools().GetByID(ctx, carpoolID); err != nil {
		return nil, err
	}

	m := &domain.Message{
		CarpoolID: carpoolID,
		UserID:    userID,
		Content:   content,
		SentTime:  time.Now(),
	}
	if err := s.store.Messages().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return m, nil
}

// List returns the carpool's messages, oldest first. Removed messages are
// returned with empty content.
func (s *MessageService) List(ctx context.Context, carpoolID int64) ([]*domain.Message, error) {
	if _, err := s.store.Carpools().GetByID(ctx, carpoolID); err != nil {
		return nil, err
	}
	messages, err := s.store.Messages().ListByCarpool(ctx, carpoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for _, m := range messages {
		if m.Removed {
			m.Content = ""
		}
	}
	return messages, nil
}

// Remove hides a message.
func (s *MessageService) Remove(ctx context.Context, messageID int64) error {
	if err := s.store.Messages().MarkRemoved(ctx, messageID); err != nil {
		return err
	}
	s.logger.Info("message removed", "message_id", messageID)
	return nil
}
