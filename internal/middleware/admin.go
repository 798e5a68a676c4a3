package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const serviceAccountLocal = "service_account"

// IsServiceAccount reports whether the request was authorised with the
// service-account token.
func IsServiceAccount(c *fiber.Ctx) bool {
	v, _ := c.Locals(serviceAccountLocal).(bool)
	return v
}

// ServiceTokenOrJWT lets privileged server-to-server calls through with the
// X-Service-Token header and requires a valid JWT from everyone else.
func ServiceTokenOrJWT(cfg *config.Config) fiber.Handler {
	jwt := JWTProtected(cfg)
	return func(c *fiber.Ctx) error {
		if validServiceToken(cfg, c.Get("X-Service-Token")) {
			c.Locals(serviceAccountLocal, true)
			return c.Next()
		}
		return jwt(c)
	}
}

// SuperAdminRequired admits the service account, configured super-admin
// emails, and profiles with the super-admin role.
func SuperAdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	superAdmins := config.ParseCSV(cfg.SuperAdminEmails)

	return func(c *fiber.Ctx) error {
		if IsServiceAccount(c) {
			return c.Next()
		}
		profile, ok := currentProfile(c, db)
		if !ok {
			return unauthorized(c)
		}
		if containsFold(superAdmins, tenant.ClaimString(c, "email")) || profile.HasRole(models.RoleSuperAdmin) {
			return c.Next()
		}
		return forbidden(c, "Super-admin access required")
	}
}

// TenantAdminRequired admits super-admins, and tenant admins for their own
// tenant (the :tenant_id route param).
func TenantAdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	superAdmins := config.ParseCSV(cfg.SuperAdminEmails)

	return func(c *fiber.Ctx) error {
		if IsServiceAccount(c) {
			return c.Next()
		}
		profile, ok := currentProfile(c, db)
		if !ok {
			return unauthorized(c)
		}
		if containsFold(superAdmins, tenant.ClaimString(c, "email")) || profile.HasRole(models.RoleSuperAdmin) {
			return c.Next()
		}
		if profile.HasRole(models.RoleAdmin) && profile.TenantID == c.Params("tenant_id") {
			return c.Next()
		}
		return forbidden(c, "Tenant admin access required")
	}
}

// ProfessionalRequired admits professional profiles only.
func ProfessionalRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, ok := currentProfile(c, db)
		if !ok {
			return unauthorized(c)
		}
		if !profile.IsProfessional() {
			return forbidden(c, "Professional account required")
		}
		c.Locals("profile", profile)
		return c.Next()
	}
}

func currentProfile(c *fiber.Ctx, db *gorm.DB) (*models.UserProfile, bool) {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return nil, false
	}
	var profile models.UserProfile
	if err := db.WithContext(c.UserContext()).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, false
	}
	return &profile, true
}

func validServiceToken(cfg *config.Config, got string) bool {
	if cfg.ServiceAccountToken == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(cfg.ServiceAccountToken)) == 1
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func containsFold(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
