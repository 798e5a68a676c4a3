package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	SiteConfig *handlers.SiteConfigHandler
	Profile    *handlers.ProfileHandler
	Room       *handlers.RoomHandler
	Payment    *handlers.PaymentHandler
	Webhook    *handlers.WebhookHandler
	Admin      *handlers.AdminHandler
	Legal      *handlers.LegalHandler
	Live       *handlers.LiveHandler
}

func perIP(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers, plugins []apps.Plugin) {
	api := app.Group("/api")

	// Live socket is mounted before the limiter; one upgrade holds the connection.
	if h.Live != nil {
		api.Get("/live", h.Live.Upgrade, h.Live.Stream())
	}

	// General API rate limiter: 120 req/min per IP
	api.Use(perIP(120))

	api.Get("/health", h.Health.Check)
	api.Get("/site-config", middleware.OptionalJWT(cfg), h.SiteConfig.Get)

	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Auth: stricter 10 req/min per IP
	auth := api.Group("/auth")
	auth.Post("/register", perIP(10), h.Auth.Register)
	auth.Post("/login", perIP(10), h.Auth.Login)
	auth.Post("/refresh", perIP(10), h.Auth.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	auth.Delete("/account", middleware.JWTProtected(cfg), h.Auth.DeleteAccount)

	jwt := middleware.JWTProtected(cfg)

	me := api.Group("/me", jwt)
	me.Get("/", h.Profile.Me)
	me.Patch("/", h.Profile.Update)
	me.Post("/share-code", h.Profile.RegenerateShareCode)

	rooms := api.Group("/rooms", jwt)
	rooms.Get("/", h.Room.List)
	rooms.Post("/", middleware.ProfessionalRequired(db), h.Room.Create)
	rooms.Get("/:id", h.Room.Get)
	rooms.Delete("/:id", h.Room.Delete)
	rooms.Put("/:id/plan", h.Room.UpdatePlan)
	rooms.Get("/:id/messages", h.Room.Messages)
	rooms.Post("/:id/messages", perIP(30), h.Room.Send)
	rooms.Post("/:id/read", h.Room.MarkRead)

	payments := api.Group("/payments", jwt)
	payments.Post("/checkout", perIP(10), h.Payment.Checkout)
	payments.Get("/:id/status", h.Payment.Status)

	// Webhooks: shared-secret auth, no JWT
	api.Post("/webhooks/payments", h.Webhook.HandlePayment)

	// Admin: service token or JWT, then role checks per route
	admin := api.Group("/admin", middleware.ServiceTokenOrJWT(cfg))
	superAdmin := middleware.SuperAdminRequired(db, cfg)
	tenantAdmin := middleware.TenantAdminRequired(db, cfg)

	admin.Get("/tenants", superAdmin, h.Admin.ListTenants)
	admin.Post("/tenants", superAdmin, h.Admin.CreateTenant)
	admin.Patch("/tenants/:tenant_id", superAdmin, h.Admin.UpdateTenant)
	admin.Delete("/tenants/:tenant_id", superAdmin, h.Admin.DeleteTenant)

	admin.Get("/site-config/:tenant_id", tenantAdmin, h.Admin.GetSiteConfig)
	admin.Put("/site-config/:tenant_id", tenantAdmin, h.Admin.PutSiteConfig)
	admin.Delete("/site-config/:tenant_id", tenantAdmin, h.Admin.DeleteSiteConfig)
	admin.Post("/site-config/:tenant_id/logo", tenantAdmin, h.Admin.UploadLogo)

	// Feature plugins share one JWT-protected group.
	protected := api.Group("/p", jwt)
	pluginAdmin := admin.Group("/plugins", superAdmin)
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(pluginAdmin, db, cfg)
		}
	}
}
