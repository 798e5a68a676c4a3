package dto

import "github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"

type CreateRoomRequest struct {
	ShareCode string `json:"share_code"`
	RoomName  string `json:"room_name"`
}

type UpdatePlanRequest struct {
	Plan models.MealPlan `json:"plan"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type RoomSummary struct {
	models.Room
	HasUnread bool `json:"has_unread"`
}

type RoomListResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
}
