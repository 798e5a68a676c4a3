// Package chat follows one room's message stream for one participant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrStopped      = errors.New("chat session stopped")
)

// Participant is the user on this end of the chat.
type Participant struct {
	ID             string
	Name           string
	IsProfessional bool
}

// MessageStore is the persistence the chat session needs.
type MessageStore interface {
	ListMessages(ctx context.Context, roomID string) ([]models.Message, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	UpdateLastMessage(ctx context.Context, roomID string, last models.LastMessage) error
	MarkRead(ctx context.Context, roomID, userID string) error
}

// Handlers receive session events. Any of them may be nil. They are called
// sequentially from the session's watch goroutine.
type Handlers struct {
	// OnMessages receives the full ordered message list on every snapshot.
	OnMessages func([]models.Message)
	// OnNewMessage fires once for each newly arrived message sent by someone else.
	OnNewMessage func(models.Message)
	OnError      func(error)
}

type Session struct {
	store    MessageStore
	feed     realtime.Feed
	roomID   string
	me       Participant
	handlers Handlers

	sending atomic.Bool

	mu         sync.Mutex
	messages   []models.Message
	seen       map[string]struct{}
	snapshots  int
	stop       realtime.Unsubscribe
	stopped    bool
	markedRead bool
}

func NewSession(store MessageStore, feed realtime.Feed, roomID string, me Participant, h Handlers) *Session {
	return &Session{
		store:    store,
		feed:     feed,
		roomID:   roomID,
		me:       me,
		handlers: h,
		seen:     make(map[string]struct{}),
	}
}

func (s *Session) RoomID() string {
	return s.roomID
}

// Start opens the live message subscription. It is a no-op when already started.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil || s.stopped {
		return
	}

	load := func(ctx context.Context) ([]models.Message, bool, error) {
		msgs, err := s.store.ListMessages(ctx, s.roomID)
		return msgs, true, err
	}
	s.stop = realtime.Watch(ctx, s.feed, realtime.RoomMessagesTopic(s.roomID), load, func(snap realtime.Snapshot[[]models.Message], err error) {
		s.apply(ctx, snap.Value, err)
	})
}

// Stop ends the subscription. No handler is called after Stop returns.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Messages returns the latest ordered message list.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Session) apply(ctx context.Context, msgs []models.Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if err != nil {
		slog.Error("chat snapshot failed", "room_id", s.roomID, "user_id", s.me.ID, "error", err)
		if s.handlers.OnError != nil {
			s.handlers.OnError(err)
		}
		return
	}

	first := s.snapshots == 0
	s.snapshots++
	s.messages = msgs

	if first && !s.markedRead {
		s.markedRead = true
		if err := s.store.MarkRead(ctx, s.roomID, s.me.ID); err != nil {
			slog.Warn("mark room read failed", "room_id", s.roomID, "user_id", s.me.ID, "error", err)
		}
	}

	if s.handlers.OnMessages != nil {
		s.handlers.OnMessages(append([]models.Message(nil), msgs...))
	}

	if !first && len(msgs) > 0 {
		newest := msgs[len(msgs)-1]
		if _, ok := s.seen[newest.ID]; !ok && newest.SenderID != s.me.ID && s.handlers.OnNewMessage != nil {
			s.handlers.OnNewMessage(newest)
		}
	}
	for _, m := range msgs {
		s.seen[m.ID] = struct{}{}
	}
}

// Send appends a message and refreshes the room's last-message preview. Only
// one send may be in flight per session.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !s.sending.CompareAndSwap(false, true) {
		return ErrSendInFlight
	}
	defer s.sending.Store(false)

	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	msg := &models.Message{
		RoomID:         s.roomID,
		Text:           text,
		SenderID:       s.me.ID,
		SenderName:     s.me.Name,
		IsProfessional: s.me.IsProfessional,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	last := models.LastMessage{Text: msg.Text, SenderID: msg.SenderID, CreatedAt: msg.CreatedAt}
	if err := s.store.UpdateLastMessage(ctx, s.roomID, last); err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}
	return nil
}
