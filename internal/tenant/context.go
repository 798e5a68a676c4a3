package tenant

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const localsKey = "tenant_id"

// GetTenantID extracts the tenant id resolved by the tenant middleware.
func GetTenantID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localsKey).(string); ok && id != "" {
		return id
	}
	return models.DefaultTenantID
}

// SetTenantID stores the request tenant in Fiber context locals.
func SetTenantID(c *fiber.Ctx, id string) {
	c.Locals(localsKey, id)
}

// Claims returns the verified JWT claims of the request, if any.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// GetUserID extracts the account id from the JWT sub claim.
func GetUserID(c *fiber.Ctx) (string, error) {
	claims, ok := Claims(c)
	if !ok {
		return "", errors.New("invalid token in context")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

// ClaimString returns a string claim, or "" when absent.
func ClaimString(c *fiber.Ctx, key string) string {
	claims, ok := Claims(c)
	if !ok {
		return ""
	}
	v, _ := claims[key].(string)
	return v
}
