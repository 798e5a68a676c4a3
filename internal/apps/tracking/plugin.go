package tracking

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin implements the apps.Plugin interface for meal, hydration and weight tracking.
type Plugin struct {
	feed realtime.Feed
}

func New(feed realtime.Feed) *Plugin {
	return &Plugin{feed: feed}
}

func (p *Plugin) ID() string { return "tracking" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&models.MealEntry{},
		&models.HydrationEntry{},
		&models.WeightLog{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewTrackingHandler(NewTrackingService(db, p.feed))

	r := router.Group("/tracking")
	r.Get("/meals", handler.ListMeals)
	r.Post("/meals", handler.AddMeal)
	r.Put("/meals/:id", handler.UpdateMeal)
	r.Delete("/meals/:id", handler.DeleteMeal)
	r.Post("/water", handler.AddWater)
	r.Put("/water", handler.SetWater)
	r.Get("/weights", handler.ListWeights)
	r.Post("/weights", handler.LogWeight)
	r.Get("/dashboard", handler.Dashboard)
	r.Get("/patients/:patient_id/dashboard", handler.Dashboard)
}
