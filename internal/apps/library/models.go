package library

import "github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"

// --- DTOs ---

type TemplateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Plan        models.MealPlan `json:"plan"`
}

type GuidelineRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type ApplyTemplateRequest struct {
	RoomID string `json:"room_id"`
}
