package library

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin implements apps.AdminPlugin for the per-tenant plan template and
// guideline library.
type Plugin struct {
	feed  realtime.Feed
	rooms PlanApplier
}

func New(feed realtime.Feed, rooms PlanApplier) *Plugin {
	return &Plugin{feed: feed, rooms: rooms}
}

func (p *Plugin) ID() string { return "library" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&models.PlanTemplate{},
		&models.Guideline{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewLibraryHandler(NewLibraryService(db, p.feed, p.rooms))
	professional := middleware.ProfessionalRequired(db)

	r := router.Group("/library")
	r.Get("/templates", handler.ListTemplates)
	r.Post("/templates", professional, handler.CreateTemplate)
	r.Put("/templates/:id", professional, handler.UpdateTemplate)
	r.Delete("/templates/:id", professional, handler.DeleteTemplate)
	r.Post("/templates/:id/apply", professional, handler.ApplyTemplate)
	r.Get("/guidelines", handler.ListGuidelines)
	r.Post("/guidelines", professional, handler.CreateGuideline)
	r.Delete("/guidelines/:id", professional, handler.DeleteGuideline)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	handler := NewLibraryHandler(NewLibraryService(db, p.feed, p.rooms))

	router.Get("/library/:tenant_id/templates", handler.AdminListTemplates)
	router.Delete("/library/:tenant_id/templates/:id", handler.AdminDeleteTemplate)
	router.Delete("/library/:tenant_id/guidelines/:id", handler.AdminDeleteGuideline)
}
