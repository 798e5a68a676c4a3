package chat

import "github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"

// HasUnread reports whether room holds a message userID has not read: the
// last message came from someone else and is newer than the user's read mark.
func HasUnread(room *models.Room, userID string) bool {
	last := room.LastMessage.Data()
	if last == nil || last.SenderID == userID {
		return false
	}
	readAt, ok := room.LastRead.Data()[userID]
	if !ok {
		return true
	}
	return last.CreatedAt.After(readAt)
}
