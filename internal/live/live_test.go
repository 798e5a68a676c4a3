package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errClosed = errors.New("connection closed")

// fakeConn feeds scripted client frames and records server frames.
type fakeConn struct {
	in      chan Inbound
	written chan Outbound
	// done is the client going away; closed is the server closing the socket.
	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan Inbound, 16),
		written: make(chan Outbound, 256),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	select {
	case msg, ok := <-f.in:
		if !ok {
			return errClosed
		}
		*(v.(*Inbound)) = msg
		return nil
	case <-f.done:
		return errClosed
	case <-f.closed:
		return errClosed
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	select {
	case <-f.done:
		return errClosed
	default:
	}
	f.written <- v.(Outbound)
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// waitFor returns the first frame matching pred, skipping the rest.
func (f *fakeConn) waitFor(t *testing.T, pred func(Outbound) bool) Outbound {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-f.written:
			if pred(msg) {
				return msg
			}
		case <-timeout:
			t.Fatal("timed out waiting for frame")
			return Outbound{}
		}
	}
}

func ofType(typ string) func(Outbound) bool {
	return func(o Outbound) bool { return o.Type == typ }
}

type liveEnv struct {
	db    *gorm.DB
	feed  *realtime.LocalFeed
	srv   *Server
	auth  *services.AuthService
	rooms *services.RoomService
	msgs  *services.MessageService
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	db := testutil.NewDB(t)
	feed := realtime.NewLocalFeed()
	require.NoError(t, db.Create(&models.Tenant{ID: "clinic-y", Name: "Clinic Y", IsActive: true}).Error)
	registry, err := tenant.Load(context.Background(), db)
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "live-secret", JWTAccessExpiry: time.Hour, JWTRefreshExpiry: time.Hour}
	auth := services.NewAuthService(db, cfg, feed)
	rooms := services.NewRoomService(db, feed)
	msgs := services.NewMessageService(db, feed)
	return &liveEnv{
		db:    db,
		feed:  feed,
		auth:  auth,
		rooms: rooms,
		msgs:  msgs,
		srv: &Server{
			Tokens:   auth,
			Profiles: services.NewProfileService(db, feed),
			Rooms:    rooms,
			Messages: msgs,
			Tenants:  tenant.NewResolver([]string{"localhost"}, registry),
			Configs:  siteconfig.NewResolver(siteconfig.NewGormStore(db), feed),
			Feed:     feed,
		},
	}
}

func (e *liveEnv) connect(t *testing.T, host string) *fakeConn {
	t.Helper()
	fc := newFakeConn()
	served := make(chan struct{})
	go func() {
		defer close(served)
		e.srv.Serve(context.Background(), fc, host)
	}()
	t.Cleanup(func() {
		close(fc.done)
		<-served
	})
	return fc
}

func (e *liveEnv) register(t *testing.T, tenantID, email string, pt models.ProfileType) *dto.AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), tenantID, &dto.RegisterRequest{
		Email: email, Password: "password123", FullName: email, ProfileType: pt,
	})
	require.NoError(t, err)
	return resp
}

func TestVisitorGetsHostTenantConfig(t *testing.T) {
	e := newLiveEnv(t)
	store := siteconfig.NewGormStore(e.db)
	require.NoError(t, store.SaveOverride(context.Background(), "clinic-y", []byte(`{"site_name":"Clinic Y"}`), "test"))

	fc := e.connect(t, "clinic-y.nutriroom.app")

	msg := fc.waitFor(t, ofType(TypeSiteConfig))
	payload := msg.Data.(SiteConfigPayload)
	assert.Equal(t, "clinic-y", payload.TenantID)
	assert.Equal(t, "Clinic Y", payload.Config.SiteName)
}

func TestAuthMovesConfigToProfileTenant(t *testing.T) {
	e := newLiveEnv(t)
	resp := e.register(t, models.DefaultTenantID, "ana@example.com", models.ProfileTypePatient)

	fc := e.connect(t, "clinic-y.nutriroom.app")
	first := fc.waitFor(t, ofType(TypeSiteConfig))
	assert.Equal(t, "clinic-y", first.Data.(SiteConfigPayload).TenantID)

	fc.in <- Inbound{Type: TypeAuth, Token: resp.AccessToken}

	st := fc.waitFor(t, func(o Outbound) bool {
		p, ok := o.Data.(SessionPayload)
		return o.Type == TypeSession && ok && p.Profile != nil
	})
	assert.Equal(t, models.DefaultTenantID, st.Data.(SessionPayload).TenantID)
	assert.Equal(t, resp.User.ID, st.Data.(SessionPayload).User.ID)

	cfg := fc.waitFor(t, ofType(TypeSiteConfig))
	assert.Equal(t, models.DefaultTenantID, cfg.Data.(SiteConfigPayload).TenantID)
}

func TestShutdownEndsIdleConnection(t *testing.T) {
	e := newLiveEnv(t)
	fc := newFakeConn()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		e.srv.Serve(ctx, fc, "localhost")
	}()

	fc.waitFor(t, ofType(TypeSiteConfig))
	cancel()

	select {
	case <-served:
	case <-time.After(3 * time.Second):
		t.Fatal("connection still open after shutdown")
	}
	select {
	case <-fc.closed:
	default:
		t.Fatal("socket was not closed")
	}
}

func TestInvalidTokenIsReported(t *testing.T) {
	e := newLiveEnv(t)
	fc := e.connect(t, "localhost")

	fc.in <- Inbound{Type: TypeAuth, Token: "garbage"}
	msg := fc.waitFor(t, ofType(TypeError))
	assert.Equal(t, TypeAuth, msg.Data.(ErrorPayload).Request)
}

func TestWatchRoomStreamsMessages(t *testing.T) {
	e := newLiveEnv(t)
	profResp := e.register(t, models.DefaultTenantID, "prof@example.com", models.ProfileTypeProfessional)
	patResp := e.register(t, models.DefaultTenantID, "pat@example.com", models.ProfileTypePatient)

	var patient models.UserProfile
	require.NoError(t, e.db.First(&patient, "id = ?", patResp.User.ID).Error)
	room, err := e.rooms.CreateRoom(context.Background(), models.DefaultTenantID, profResp.User.ID, patient.DashboardShareCode, "")
	require.NoError(t, err)

	fc := e.connect(t, "localhost")
	fc.in <- Inbound{Type: TypeAuth, Token: patResp.AccessToken}
	fc.waitFor(t, func(o Outbound) bool {
		p, ok := o.Data.(SessionPayload)
		return ok && p.Profile != nil
	})

	fc.in <- Inbound{Type: TypeWatchRoom, RoomID: room.ID}
	initial := fc.waitFor(t, ofType(TypeMessages))
	assert.Empty(t, initial.Data.(MessagesPayload).Messages)

	require.NoError(t, e.msgs.AppendMessage(context.Background(), &models.Message{
		RoomID: room.ID, Text: "hello", SenderID: profResp.User.ID, IsProfessional: true,
	}))

	msg := fc.waitFor(t, ofType(TypeNewMessage))
	assert.Equal(t, "hello", msg.Data.(NewMessagePayload).Message.Text)

	fc.in <- Inbound{Type: TypeSend, Text: "hi back"}
	got := fc.waitFor(t, func(o Outbound) bool {
		p, ok := o.Data.(MessagesPayload)
		return ok && len(p.Messages) == 2
	})
	assert.Equal(t, patResp.User.ID, got.Data.(MessagesPayload).Messages[1].SenderID)
}

func TestWatchRoomDeniedForOutsider(t *testing.T) {
	e := newLiveEnv(t)
	profResp := e.register(t, models.DefaultTenantID, "prof@example.com", models.ProfileTypeProfessional)
	patResp := e.register(t, models.DefaultTenantID, "pat@example.com", models.ProfileTypePatient)
	outsider := e.register(t, models.DefaultTenantID, "other@example.com", models.ProfileTypePatient)

	var patient models.UserProfile
	require.NoError(t, e.db.First(&patient, "id = ?", patResp.User.ID).Error)
	room, err := e.rooms.CreateRoom(context.Background(), models.DefaultTenantID, profResp.User.ID, patient.DashboardShareCode, "")
	require.NoError(t, err)

	fc := e.connect(t, "localhost")
	fc.in <- Inbound{Type: TypeAuth, Token: outsider.AccessToken}
	fc.in <- Inbound{Type: TypeWatchRoom, RoomID: room.ID}

	msg := fc.waitFor(t, ofType(TypeError))
	assert.Equal(t, ErrorPayload{Request: TypeWatchRoom, Message: "permission denied"}, msg.Data)
}

func TestSendWithoutRoomAndUnknownType(t *testing.T) {
	e := newLiveEnv(t)
	fc := e.connect(t, "localhost")

	fc.in <- Inbound{Type: TypeSend, Text: "anyone?"}
	msg := fc.waitFor(t, ofType(TypeError))
	assert.Equal(t, TypeSend, msg.Data.(ErrorPayload).Request)

	fc.in <- Inbound{Type: "dance"}
	msg = fc.waitFor(t, ofType(TypeError))
	assert.Equal(t, "unknown message type", msg.Data.(ErrorPayload).Message)

	fc.in <- Inbound{Type: TypeUpdateProfile, Fields: map[string]interface{}{"full_name": "x"}}
	msg = fc.waitFor(t, ofType(TypeError))
	assert.Equal(t, "not authenticated", msg.Data.(ErrorPayload).Message)
}
