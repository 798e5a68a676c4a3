package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testCfg = &config.Config{
	JWTSecret:           "secret",
	ServiceAccountToken: "svc-token",
	SuperAdminEmails:    "root@nutriroom.app",
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testCfg.JWTSecret))
	require.NoError(t, err)
	return s
}

func setupTenants(t *testing.T) (*gorm.DB, *tenant.Registry) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.Tenant{ID: "clinic-y", Name: "Y", IsActive: true}).Error)
	reg, err := tenant.Load(context.Background(), db)
	require.NoError(t, err)
	return db, reg
}

func tenantApp(reg *tenant.Registry) *fiber.App {
	app := fiber.New()
	app.Use(TenantMiddleware(reg, tenant.NewResolver([]string{"localhost"}, reg)))
	app.Get("/api/whoami", func(c *fiber.Ctx) error { return c.SendString(tenant.GetTenantID(c)) })
	app.Get("/api/me", JWTProtected(testCfg), func(c *fiber.Ctx) error { return c.SendString(tenant.GetTenantID(c)) })
	return app
}

func body(t *testing.T, app *fiber.App, req *httptestRequest) (int, string) {
	t.Helper()
	r := httptest.NewRequest(req.method, req.target, nil)
	r.Host = req.host
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	resp, err := app.Test(r)
	require.NoError(t, err)
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

type httptestRequest struct {
	method  string
	target  string
	host    string
	headers map[string]string
}

func TestTenantMiddleware(t *testing.T) {
	_, reg := setupTenants(t)
	app := tenantApp(reg)

	code, got := body(t, app, &httptestRequest{method: "GET", target: "/api/whoami", host: "clinic-y.example.com"})
	assert.Equal(t, 200, code)
	assert.Equal(t, "clinic-y", got)

	_, got = body(t, app, &httptestRequest{method: "GET", target: "/api/whoami", host: "unknown.example.com"})
	assert.Equal(t, models.DefaultTenantID, got)

	_, got = body(t, app, &httptestRequest{method: "GET", target: "/api/whoami", host: "localhost", headers: map[string]string{"X-Tenant-ID": "clinic-y"}})
	assert.Equal(t, "clinic-y", got)

	code, _ = body(t, app, &httptestRequest{method: "GET", target: "/api/whoami", host: "localhost", headers: map[string]string{"X-Tenant-ID": "nope"}})
	assert.Equal(t, 400, code)

	token := sign(t, jwt.MapClaims{"sub": "u1", "tenant_id": "clinic-z"})
	_, got = body(t, app, &httptestRequest{method: "GET", target: "/api/me", host: "clinic-y.example.com", headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.Equal(t, "clinic-z", got)

	code, _ = body(t, app, &httptestRequest{method: "GET", target: "/api/me", host: "localhost"})
	assert.Equal(t, 401, code)
}

func TestAdminGuards(t *testing.T) {
	db, _ := setupTenants(t)
	require.NoError(t, db.Create(&models.UserProfile{ID: "super", TenantID: "default", Role: models.RoleSuperAdmin, DashboardShareCode: "AAAAAAA1"}).Error)
	require.NoError(t, db.Create(&models.UserProfile{ID: "tadmin", TenantID: "clinic-y", Role: models.RoleAdmin, DashboardShareCode: "AAAAAAA2"}).Error)
	require.NoError(t, db.Create(&models.UserProfile{ID: "patient", TenantID: "clinic-y", DashboardShareCode: "AAAAAAA3"}).Error)
	require.NoError(t, db.Create(&models.UserProfile{ID: "rootmail", TenantID: "default", DashboardShareCode: "AAAAAAA4"}).Error)

	app := fiber.New()
	admin := app.Group("/admin", ServiceTokenOrJWT(testCfg))
	admin.Get("/tenants", SuperAdminRequired(db, testCfg), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	admin.Get("/site-config/:tenant_id", TenantAdminRequired(db, testCfg), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	app.Get("/pro", JWTProtected(testCfg), ProfessionalRequired(db), func(c *fiber.Ctx) error { return c.SendStatus(204) })

	call := func(target string, headers map[string]string) int {
		code, _ := body(t, app, &httptestRequest{method: "GET", target: target, host: "localhost", headers: headers})
		return code
	}
	bearer := func(sub, email string) map[string]string {
		return map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"sub": sub, "email": email})}
	}

	assert.Equal(t, 204, call("/admin/tenants", map[string]string{"X-Service-Token": "svc-token"}))
	assert.Equal(t, 401, call("/admin/tenants", map[string]string{"X-Service-Token": "wrong"}))
	assert.Equal(t, 204, call("/admin/tenants", bearer("super", "")))
	assert.Equal(t, 204, call("/admin/tenants", bearer("rootmail", "root@nutriroom.app")))
	assert.Equal(t, 403, call("/admin/tenants", bearer("tadmin", "")))

	assert.Equal(t, 204, call("/admin/site-config/clinic-y", bearer("tadmin", "")))
	assert.Equal(t, 403, call("/admin/site-config/default", bearer("tadmin", "")))
	assert.Equal(t, 403, call("/admin/site-config/clinic-y", bearer("patient", "")))

	assert.Equal(t, 403, call("/pro", bearer("patient", "")))
	assert.Equal(t, 401, call("/pro", bearer("ghost", "")))
}

func TestCORSAllowsTenantDomains(t *testing.T) {
	db := testutil.NewDB(t)
	domain := "nutri.clinic-z.com"
	require.NoError(t, db.Create(&models.Tenant{ID: "clinic-z", Name: "Z", Domain: &domain, IsActive: true}).Error)
	reg, err := tenant.Load(context.Background(), db)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(CORS(&config.Config{CORSOrigins: "https://app.nutriroom.app"}, reg))
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	allowed := func(origin string) string {
		r := httptest.NewRequest("GET", "/api/ping", nil)
		r.Header.Set("Origin", origin)
		resp, err := app.Test(r)
		require.NoError(t, err)
		return resp.Header.Get("Access-Control-Allow-Origin")
	}

	assert.Equal(t, "https://app.nutriroom.app", allowed("https://app.nutriroom.app"))
	assert.Equal(t, "https://nutri.clinic-z.com", allowed("https://nutri.clinic-z.com"))
	assert.Empty(t, allowed("https://evil.example.com"))
}
