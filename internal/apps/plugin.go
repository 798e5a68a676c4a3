package apps

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin is a feature module mounted under /api/p.
type Plugin interface {
	// ID returns the unique plugin identifier.
	ID() string

	// Models returns the GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts the plugin's routes on the given Fiber group.
	// The group is prefixed with /api/p and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// AdminPlugin extends Plugin with routes under /api/admin/plugins, guarded by
// the service token or a super-admin.
type AdminPlugin interface {
	Plugin

	RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
