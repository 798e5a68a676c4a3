package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MessageService persists chat messages and the room fields derived from them.
type MessageService struct {
	db   *gorm.DB
	feed realtime.Feed
	now  func() time.Time
}

func NewMessageService(db *gorm.DB, feed realtime.Feed) *MessageService {
	return &MessageService{db: db, feed: feed, now: func() time.Time { return time.Now().UTC() }}
}

// ListMessages returns a room's messages oldest first.
func (s *MessageService) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// AppendMessage stores msg with a server timestamp.
func (s *MessageService) AppendMessage(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = s.now()
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	realtime.PublishAll(ctx, s.feed, realtime.RoomMessagesTopic(msg.RoomID))
	return nil
}

func (s *MessageService) UpdateLastMessage(ctx context.Context, roomID string, last models.LastMessage) error {
	result := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("last_message", datatypes.NewJSONType(&last))
	if result.Error != nil {
		return fmt.Errorf("failed to update last message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	realtime.PublishAll(ctx, s.feed, realtime.RoomTopic(roomID))
	return nil
}

// MarkRead sets last_read[userID] to the server time.
func (s *MessageService) MarkRead(ctx context.Context, roomID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := forUpdate(tx).First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		lastRead := make(map[string]time.Time, len(room.LastRead.Data())+1)
		for k, v := range room.LastRead.Data() {
			lastRead[k] = v
		}
		lastRead[userID] = s.now()
		return tx.Model(&room).Update("last_read", datatypes.NewJSONType(lastRead)).Error
	})
	if err != nil {
		return err
	}
	realtime.PublishAll(ctx, s.feed, realtime.RoomTopic(roomID))
	return nil
}
