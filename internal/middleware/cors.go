package middleware

import (
	"net/url"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured origins plus every tenant's registered custom
// domain, so white-label sites can call the API without a redeploy.
func CORS(cfg *config.Config, registry *tenant.Registry) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowOriginsFunc: func(origin string) bool {
			u, err := url.Parse(origin)
			if err != nil || u.Hostname() == "" {
				return false
			}
			_, ok := registry.ByDomain(u.Hostname())
			return ok
		},
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Tenant-ID, X-Service-Token, X-Webhook-Secret",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: false,
	})
}
