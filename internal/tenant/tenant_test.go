package tenant

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type domainMap map[string]string

func (m domainMap) ByDomain(host string) (string, bool) {
	id, ok := m[host]
	return id, ok
}

func TestResolveProfileWins(t *testing.T) {
	r := NewResolver([]string{"localhost"}, nil)
	for _, host := range []string{"clinic-y.example.com", "localhost", "www.example.com", ""} {
		id, ok := r.Resolve(Identity{HasProfile: true, ProfileTenantID: "clinic-x", Host: host})
		assert.True(t, ok)
		assert.Equal(t, "clinic-x", id, host)
	}
}

func TestResolveLoadingIsUnresolved(t *testing.T) {
	r := NewResolver(nil, nil)
	id, ok := r.Resolve(Identity{Loading: true, HasProfile: true, ProfileTenantID: "clinic-x"})
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestResolveAnonymousByHost(t *testing.T) {
	r := NewResolver([]string{"localhost", "vercel.app", "ngrok-free.app"}, domainMap{"nutri.clinic-z.com": "clinic-z"})

	cases := map[string]string{
		"clinic-y.example.com":      "clinic-y",
		"Clinic-Y.Example.com:8443": "clinic-y",
		"localhost":                 models.DefaultTenantID,
		"localhost:3000":            models.DefaultTenantID,
		"www.example.com":           models.DefaultTenantID,
		"example.com":               models.DefaultTenantID,
		"my-app.vercel.app":         models.DefaultTenantID,
		"abc-123.ngrok-free.app":    models.DefaultTenantID,
		"127.0.0.1:8080":            models.DefaultTenantID,
		"nutri.clinic-z.com":        "clinic-z",
		"":                          models.DefaultTenantID,
	}
	for host, want := range cases {
		id, ok := r.Resolve(Identity{Host: host})
		assert.True(t, ok)
		assert.Equal(t, want, id, host)
	}
}

func TestRegistryRefresh(t *testing.T) {
	db := testutil.NewDB(t)
	domain := "nutri.clinic-z.com"
	require.NoError(t, db.Create(&models.Tenant{ID: "clinic-z", Name: "Clinic Z", Domain: &domain, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Tenant{ID: "closed", Name: "Closed", IsActive: true}).Error)
	require.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", "closed").Update("is_active", false).Error)

	reg, err := Load(context.Background(), db)
	require.NoError(t, err)

	assert.True(t, reg.Exists(models.DefaultTenantID))
	assert.True(t, reg.Exists("clinic-z"))
	assert.False(t, reg.Exists("closed"))
	assert.Equal(t, 2, reg.Count())

	id, ok := reg.ByDomain("NUTRI.clinic-z.com")
	assert.True(t, ok)
	assert.Equal(t, "clinic-z", id)
}

func TestForTenantScope(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.UserProfile{ID: "a", TenantID: "t1", DashboardShareCode: "AAAAAAAA"}).Error)
	require.NoError(t, db.Create(&models.UserProfile{ID: "b", TenantID: "t2", DashboardShareCode: "BBBBBBBB"}).Error)

	var profiles []models.UserProfile
	require.NoError(t, db.Scopes(ForTenant("t1")).Find(&profiles).Error)
	require.Len(t, profiles, 1)
	assert.Equal(t, "a", profiles[0].ID)
}

func TestContextHelpers(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Equal(t, models.DefaultTenantID, GetTenantID(c))
		_, err := GetUserID(c)
		assert.Error(t, err)

		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": "user-1", "role": "admin"}})
		SetTenantID(c, "clinic-x")

		uid, err := GetUserID(c)
		require.NoError(t, err)
		assert.Equal(t, "user-1", uid)
		assert.Equal(t, "admin", ClaimString(c, "role"))
		assert.Equal(t, "clinic-x", GetTenantID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
