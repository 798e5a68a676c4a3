package assistant

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Plugin implements the apps.Plugin interface for the nutrition assistant.
type Plugin struct {
	api NutritionAPI
}

func New(api NutritionAPI) *Plugin {
	return &Plugin{api: api}
}

func (p *Plugin) ID() string { return "assistant" }

func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewAssistantService(p.api, services.NewProfileService(db, nil))
	handler := NewAssistantHandler(svc)

	// Workflow calls are slow and paid: 20 req/min per user
	r := router.Group("/assistant", limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, err := tenant.GetUserID(c); err == nil {
				return "assistant:" + id
			}
			return "assistant:" + c.IP()
		},
	}))
	r.Post("/nutrition", handler.Nutrition)
	r.Post("/plan", handler.Plan)
	r.Post("/chef", handler.Chef)
}
