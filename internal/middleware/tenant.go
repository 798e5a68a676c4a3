package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// Paths that don't need a tenant.
var tenantSkipPaths = []string{
	"/api/health",
	"/api/webhooks/",
}

// TenantMiddleware resolves the request tenant from the X-Tenant-ID header or
// the request host. A verified token later replaces it with the user's own
// tenant (see JWTProtected and OptionalJWT).
func TenantMiddleware(registry *tenant.Registry, resolver *tenant.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, skip := range tenantSkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		// 1. Explicit header
		if id := c.Get("X-Tenant-ID"); id != "" {
			if !registry.Exists(id) {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Invalid X-Tenant-ID: " + id,
				})
			}
			tenant.SetTenantID(c, id)
			return c.Next()
		}

		// 2. Host (custom domain or subdomain); unknown tenants fall back to default
		id := resolver.FromHost(c.Hostname())
		if !registry.Exists(id) {
			id = models.DefaultTenantID
		}
		tenant.SetTenantID(c, id)
		return c.Next()
	}
}
