package handlers

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type SiteConfigHandler struct {
	resolver *siteconfig.Resolver
}

func NewSiteConfigHandler(resolver *siteconfig.Resolver) *SiteConfigHandler {
	return &SiteConfigHandler{resolver: resolver}
}

// Get returns the request tenant's merged site configuration. It never fails;
// missing or broken overrides resolve to the defaults. A signed-in user always
// gets their own tenant's configuration, whatever host they came through.
func (h *SiteConfigHandler) Get(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	cfg := h.resolver.Resolve(c.UserContext(), tenantID)
	c.Vary(fiber.HeaderAuthorization)
	if _, ok := tenant.Claims(c); ok {
		c.Set(fiber.HeaderCacheControl, "private, max-age=60")
	} else {
		c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	}
	return c.JSON(fiber.Map{
		"tenant_id": tenantID,
		"config":    cfg,
	})
}
