package handlers

import (
	"html"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

const legalStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

type LegalHandler struct {
	registry *tenant.Registry
	configs  *siteconfig.Resolver
}

func NewLegalHandler(registry *tenant.Registry, configs *siteconfig.Resolver) *LegalHandler {
	return &LegalHandler{registry: registry, configs: configs}
}

// siteName is the tenant's configured site name, or the tenant's own name
// while it still runs on the default configuration.
func (h *LegalHandler) siteName(c *fiber.Ctx) string {
	tenantID := tenant.GetTenantID(c)
	name := h.configs.Resolve(c.UserContext(), tenantID).SiteName
	if name == siteconfig.Default().SiteName {
		if t := h.registry.Get(tenantID); t != nil && t.Name != "" {
			name = t.Name
		}
	}
	return html.EscapeString(name)
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	name := h.siteName(c)
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + name + `</title>
` + legalStyle + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address, profile details, nutrition goals, meal, hydration and weight entries, and the messages you exchange with your nutrition professional.</p>
<h2>Who Can See Your Data</h2>
<p>Only you and the professional you share your dashboard code with can see your entries and room messages. Professionals of ` + name + ` never see patients that have not shared a code with them.</p>
<h2>Payments</h2>
<p>Subscriptions are paid by PIX through our payment provider. We store the payment status, never your banking details.</p>
<h2>Account Deletion</h2>
<p>You can delete your account at any time. Your profile, entries, rooms and messages are removed together.</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	name := h.siteName(c)
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + name + `</title>
` + legalStyle + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: October 2026</p>
<h2>Acceptance</h2>
<p>By using ` + name + `, you agree to these terms.</p>
<h2>Not Medical Advice</h2>
<p>Meal plans, assistant suggestions and nutrition estimates are informational. Follow the guidance of your professional and seek medical care when needed.</p>
<h2>Subscriptions</h2>
<p>A subscription runs for 30 days from payment confirmation and is not renewed automatically.</p>
<h2>Termination</h2>
<p>We may suspend accounts that abuse the service or other users.</p>
</body></html>`)
}
