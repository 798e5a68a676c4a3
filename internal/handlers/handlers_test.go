package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	db    *gorm.DB
	cfg   *config.Config
	feed  *realtime.LocalFeed
	auth  *services.AuthService
	rooms *services.RoomService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:        "handler-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
	}
	feed := realtime.NewLocalFeed()
	return &testServer{
		db:    db,
		cfg:   cfg,
		feed:  feed,
		auth:  services.NewAuthService(db, cfg, feed),
		rooms: services.NewRoomService(db, feed),
	}
}

func (s *testServer) app(detailed bool) *fiber.App {
	profiles := services.NewProfileService(s.db, s.feed)
	messages := services.NewMessageService(s.db, s.feed)
	authH := NewAuthHandler(s.auth)
	roomH := NewRoomHandler(s.rooms, messages, profiles, s.feed, detailed)
	cfgH := NewSiteConfigHandler(siteconfig.NewResolver(siteconfig.NewGormStore(s.db), s.feed))
	webhookH := NewWebhookHandler(services.NewPaymentService(s.db, s.feed, nil, 4990), "hook-secret")

	app := fiber.New()
	app.Post("/auth/register", authH.Register)
	app.Post("/auth/login", authH.Login)
	app.Get("/site-config", cfgH.Get)
	app.Post("/webhooks/payments", webhookH.HandlePayment)

	rooms := app.Group("/rooms", middleware.JWTProtected(s.cfg))
	rooms.Get("/:id", roomH.Get)
	rooms.Get("/:id/messages", roomH.Messages)
	rooms.Post("/:id/messages", roomH.Send)
	return app
}

func (s *testServer) register(t *testing.T, email string, kind models.ProfileType) *dto.AuthResponse {
	t.Helper()
	resp, err := s.auth.Register(context.Background(), models.DefaultTenantID, &dto.RegisterRequest{
		Email: email, Password: "password123", ProfileType: kind,
	})
	require.NoError(t, err)
	return resp
}

func do(t *testing.T, app *fiber.App, method, target, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	app := s.app(false)

	code, out := do(t, app, "POST", "/auth/register", "", dto.RegisterRequest{
		Email: "Ana@Example.com", Password: "password123", FullName: "Ana",
	})
	require.Equal(t, fiber.StatusCreated, code)
	assert.NotEmpty(t, out["access_token"])
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "patient", user["profile_type"])
	assert.Equal(t, models.DefaultTenantID, user["tenant_id"])

	code, _ = do(t, app, "POST", "/auth/register", "", dto.RegisterRequest{Email: "ana@example.com", Password: "password123"})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = do(t, app, "POST", "/auth/register", "", dto.RegisterRequest{Email: "b@example.com", Password: "short"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = do(t, app, "POST", "/auth/register", "", map[string]string{
		"email": "c@example.com", "password": "password123", "profile_type": "chef",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = do(t, app, "POST", "/auth/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "password123"})
	assert.Equal(t, fiber.StatusOK, code)
	assert.NotEmpty(t, out["refresh_token"])

	code, out = do(t, app, "POST", "/auth/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, true, out["error"])
}

func TestSiteConfigEndpoint(t *testing.T) {
	s := newTestServer(t)
	code, out := do(t, s.app(false), "GET", "/site-config", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, models.DefaultTenantID, out["tenant_id"])
	assert.NotNil(t, out["config"])
}

func TestSiteConfigUsesSignedInTenant(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"clinic-x", "clinic-y"} {
		require.NoError(t, s.db.Create(&models.Tenant{ID: id, Name: id, IsActive: true}).Error)
	}
	reg, err := tenant.Load(context.Background(), s.db)
	require.NoError(t, err)

	patient, err := s.auth.Register(context.Background(), "clinic-x", &dto.RegisterRequest{
		Email: "x@example.com", Password: "password123",
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(middleware.TenantMiddleware(reg, tenant.NewResolver([]string{"localhost"}, reg)))
	app.Get("/api/site-config", middleware.OptionalJWT(s.cfg),
		NewSiteConfigHandler(siteconfig.NewResolver(siteconfig.NewGormStore(s.db), s.feed)).Get)

	get := func(token string) (string, string) {
		req := httptest.NewRequest("GET", "/api/site-config", nil)
		req.Host = "clinic-y.example.com"
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			TenantID string `json:"tenant_id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out.TenantID, resp.Header.Get("Cache-Control")
	}

	id, cache := get(patient.AccessToken)
	assert.Equal(t, "clinic-x", id)
	assert.Contains(t, cache, "private")

	id, cache = get("")
	assert.Equal(t, "clinic-y", id)
	assert.Contains(t, cache, "public")

	id, _ = get("not-a-token")
	assert.Equal(t, "clinic-y", id)
}

func TestRoomPermissionDenied(t *testing.T) {
	s := newTestServer(t)
	pro := s.register(t, "pro@example.com", models.ProfileTypeProfessional)
	patient := s.register(t, "pat@example.com", models.ProfileTypePatient)
	outsider := s.register(t, "out@example.com", models.ProfileTypePatient)

	var profile models.UserProfile
	require.NoError(t, s.db.First(&profile, "id = ?", patient.User.ID).Error)
	room, err := s.rooms.CreateRoom(context.Background(), models.DefaultTenantID, pro.User.ID, profile.DashboardShareCode, "Weekly")
	require.NoError(t, err)

	t.Run("participant", func(t *testing.T) {
		code, out := do(t, s.app(false), "GET", "/rooms/"+room.ID, patient.AccessToken, nil)
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, room.ID, out["id"])

		code, _ = do(t, s.app(false), "POST", "/rooms/"+room.ID+"/messages", patient.AccessToken, dto.SendMessageRequest{Text: "  "})
		assert.Equal(t, fiber.StatusBadRequest, code)

		code, _ = do(t, s.app(false), "POST", "/rooms/"+room.ID+"/messages", patient.AccessToken, dto.SendMessageRequest{Text: "hello"})
		assert.Equal(t, fiber.StatusCreated, code)

		code, out = do(t, s.app(false), "GET", "/rooms/"+room.ID+"/messages", pro.AccessToken, nil)
		assert.Equal(t, fiber.StatusOK, code)
		assert.Len(t, out["messages"], 1)
	})

	t.Run("generic message in production", func(t *testing.T) {
		code, out := do(t, s.app(false), "GET", "/rooms/"+room.ID, outsider.AccessToken, nil)
		assert.Equal(t, fiber.StatusForbidden, code)
		assert.Equal(t, "Permission denied", out["message"])
	})

	t.Run("reason in development", func(t *testing.T) {
		code, out := do(t, s.app(true), "GET", "/rooms/"+room.ID+"/messages", outsider.AccessToken, nil)
		assert.Equal(t, fiber.StatusForbidden, code)
		assert.Contains(t, out["message"], "not a participant")
	})

	t.Run("unknown room", func(t *testing.T) {
		code, _ := do(t, s.app(false), "GET", "/rooms/missing", patient.AccessToken, nil)
		assert.Equal(t, fiber.StatusNotFound, code)
	})

	t.Run("no token", func(t *testing.T) {
		code, _ := do(t, s.app(false), "GET", "/rooms/"+room.ID, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})
}

func TestWebhookSecret(t *testing.T) {
	s := newTestServer(t)
	app := s.app(false)

	code, _ := do(t, app, "POST", "/webhooks/payments", "", map[string]string{"event": "billing.paid"})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, "POST", "/webhooks/payments?webhookSecret=wrong", "", map[string]string{"event": "billing.paid"})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	disabled := fiber.New()
	disabled.Post("/hook", NewWebhookHandler(nil, "").HandlePayment)
	code, _ = do(t, disabled, "POST", "/hook", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}
