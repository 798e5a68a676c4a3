package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db      *gorm.DB
	feed    *realtime.LocalFeed
	cfg     *config.Config
	auth    *AuthService
	profile *ProfileService
	rooms   *RoomService
	msgs    *MessageService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	feed := realtime.NewLocalFeed()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		SuperAdminEmails: "root@nutriroom.app",
	}
	return &env{
		db:      db,
		feed:    feed,
		cfg:     cfg,
		auth:    NewAuthService(db, cfg, feed),
		profile: NewProfileService(db, feed),
		rooms:   NewRoomService(db, feed),
		msgs:    NewMessageService(db, feed),
	}
}

func (e *env) register(t *testing.T, tenantID, email string, pt models.ProfileType) *models.UserProfile {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), tenantID, &dto.RegisterRequest{
		Email:       email,
		Password:    "password123",
		FullName:    email,
		ProfileType: pt,
	})
	require.NoError(t, err)
	p, err := e.profile.GetProfile(context.Background(), resp.User.ID)
	require.NoError(t, err)
	return p
}

// pair registers a professional and a patient and links them in a room.
func (e *env) pair(t *testing.T) (*models.UserProfile, *models.UserProfile, *models.Room) {
	t.Helper()
	prof := e.register(t, models.DefaultTenantID, "prof@example.com", models.ProfileTypeProfessional)
	patient := e.register(t, models.DefaultTenantID, "patient@example.com", models.ProfileTypePatient)
	room, err := e.rooms.CreateRoom(context.Background(), models.DefaultTenantID, prof.ID, patient.DashboardShareCode, "")
	require.NoError(t, err)
	return prof, patient, room
}
