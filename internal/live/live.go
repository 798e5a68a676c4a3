// Package live binds a client connection to the session, tenant, site config
// and chat synchronizers and streams their state as JSON frames.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/chat"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v5"
)

const outboxSize = 64

// Conn is the JSON frame transport. *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(raw string) (jwt.MapClaims, error)
}

// RoomAccess returns a room if the user may read it.
type RoomAccess interface {
	GetRoom(ctx context.Context, roomID, userID string) (*models.Room, error)
}

// Server holds the collaborators shared by all connections.
type Server struct {
	Tokens   TokenParser
	Profiles session.ProfileStore
	Rooms    RoomAccess
	Messages chat.MessageStore
	Tenants  *tenant.Resolver
	Configs  *siteconfig.Resolver
	Feed     realtime.Feed
	// Detailed exposes permission failure reasons to clients.
	Detailed bool
}

// Serve runs one connection until the client goes away or ctx is done. host
// is the Host the client connected to and drives tenant resolution for
// visitors without a profile.
func (s *Server) Serve(ctx context.Context, conn Conn, host string) {
	ctx, cancel := context.WithCancel(ctx)
	c := &connection{
		srv:  s,
		conn: conn,
		host: host,
		ctx:  ctx,
		out:  make(chan Outbound, outboxSize),
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(cancel)
	}()

	c.sync = session.New(ctx, s.Profiles, s.Feed)
	unsubSession := c.sync.Subscribe(c.onSession)
	// Connections start signed out until the client sends an auth frame.
	c.sync.HandleAuthEvent(nil)

	c.readLoop()

	c.stopChat()
	unsubSession()
	c.sync.Close()
	c.mu.Lock()
	c.closed = true
	if c.unsubConfig != nil {
		c.unsubConfig()
		c.unsubConfig = nil
	}
	c.mu.Unlock()

	cancel()
	<-writerDone
	conn.Close()
}

type connection struct {
	srv  *Server
	conn Conn
	host string
	ctx  context.Context
	out  chan Outbound
	sync *session.Synchronizer

	// chatMu serialises room switches.
	chatMu sync.Mutex
	chat   *chat.Session

	mu          sync.Mutex
	closed      bool
	tenantID    string
	configGen   uint64
	unsubConfig realtime.Unsubscribe
}

func (c *connection) writeLoop(cancel context.CancelFunc) {
	for {
		select {
		case <-c.ctx.Done():
			// Unblocks the read loop.
			c.conn.Close()
			return
		case msg := <-c.out:
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Debug("live write failed", "error", err)
				cancel()
				c.conn.Close()
				return
			}
		}
	}
}

func (c *connection) readLoop() {
	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		c.handle(msg)
	}
}

// send queues a frame; it gives up once the connection is shutting down.
func (c *connection) send(typ string, data interface{}) {
	select {
	case c.out <- Outbound{Type: typ, Data: data}:
	case <-c.ctx.Done():
	}
}

func (c *connection) sendError(request string, err error) {
	msg := err.Error()
	if errors.Is(err, services.ErrPermissionDenied) {
		sentry.CaptureException(err)
		slog.Warn("permission denied", "channel", "live", "error", err)
		if !c.srv.Detailed {
			msg = "permission denied"
		}
	}
	c.send(TypeError, ErrorPayload{Request: request, Message: msg})
}

func (c *connection) handle(msg Inbound) {
	switch msg.Type {
	case TypeAuth:
		claims, err := c.srv.Tokens.ParseAccessToken(msg.Token)
		if err != nil {
			c.sendError(msg.Type, errors.New("invalid or expired token"))
			return
		}
		user := userFromClaims(claims)
		if user == nil {
			c.sendError(msg.Type, errors.New("invalid or expired token"))
			return
		}
		if cur := c.sync.State().User; cur == nil || cur.ID != user.ID {
			c.stopChat()
		}
		c.sync.HandleAuthEvent(user)

	case TypeLogout:
		c.stopChat()
		c.sync.HandleAuthEvent(nil)

	case TypeWatchRoom:
		if err := c.watchRoom(msg.RoomID); err != nil {
			c.sendError(msg.Type, err)
		}

	case TypeUnwatchRoom:
		c.stopChat()

	case TypeSend:
		c.chatMu.Lock()
		cs := c.chat
		c.chatMu.Unlock()
		if cs == nil {
			c.sendError(msg.Type, errors.New("no room is being watched"))
			return
		}
		if err := cs.Send(c.ctx, msg.Text); err != nil {
			c.sendError(msg.Type, err)
		}

	case TypeUpdateProfile:
		if err := c.sync.UpdateProfile(c.ctx, msg.Fields); err != nil {
			c.sendError(msg.Type, err)
		}

	default:
		c.sendError(msg.Type, errors.New("unknown message type"))
	}
}

func userFromClaims(claims jwt.MapClaims) *session.User {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	email, _ := claims["email"].(string)
	tenantID, _ := claims["tenant_id"].(string)
	return &session.User{ID: sub, Email: email, TenantID: tenantID}
}

// onSession runs for every session state change. It forwards the state and
// re-resolves the tenant with the socket's host.
func (c *connection) onSession(st session.State) {
	id := tenant.Identity{Loading: st.Loading, Host: c.host}
	if st.Profile != nil {
		id.HasProfile = true
		id.ProfileTenantID = st.Profile.TenantID
	}
	tenantID, resolved := c.srv.Tenants.Resolve(id)
	if resolved {
		c.switchTenant(tenantID)
	}

	payload := SessionPayload{User: st.User, Profile: st.Profile, Loading: st.Loading}
	if st.Err != nil {
		payload.Error = st.Err.Error()
	}
	if resolved {
		payload.TenantID = tenantID
	}
	c.send(TypeSession, payload)
}

// switchTenant moves the config subscription to tenantID. The previous
// subscription is released before the new one starts.
func (c *connection) switchTenant(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.unsubConfig != nil && c.tenantID == tenantID) {
		return
	}
	if c.unsubConfig != nil {
		c.unsubConfig()
		c.unsubConfig = nil
	}
	c.configGen++
	gen := c.configGen
	c.tenantID = tenantID

	c.unsubConfig = c.srv.Configs.Subscribe(c.ctx, tenantID, func(cfg siteconfig.SiteConfig) {
		c.mu.Lock()
		current := gen == c.configGen && !c.closed
		c.mu.Unlock()
		if !current {
			return
		}
		c.send(TypeSiteConfig, SiteConfigPayload{TenantID: tenantID, Config: cfg})
	})
}

func (c *connection) watchRoom(roomID string) error {
	st := c.sync.State()
	if st.User == nil {
		return session.ErrNotAuthenticated
	}
	if roomID == "" {
		return errors.New("room_id is required")
	}

	room, err := c.srv.Rooms.GetRoom(c.ctx, roomID, st.User.ID)
	if err != nil {
		return err
	}

	me := chat.Participant{ID: st.User.ID}
	if st.Profile != nil {
		me.Name = st.Profile.FullName
		me.IsProfessional = st.Profile.IsProfessional()
	}

	c.chatMu.Lock()
	defer c.chatMu.Unlock()
	if c.chat != nil {
		if c.chat.RoomID() == room.ID {
			return nil
		}
		c.chat.Stop()
		c.chat = nil
	}

	cs := chat.NewSession(c.srv.Messages, c.srv.Feed, room.ID, me, chat.Handlers{
		OnMessages: func(msgs []models.Message) {
			c.send(TypeMessages, MessagesPayload{RoomID: room.ID, Messages: msgs})
		},
		OnNewMessage: func(m models.Message) {
			c.send(TypeNewMessage, NewMessagePayload{RoomID: room.ID, Message: m})
		},
		OnError: func(err error) {
			c.sendError(TypeWatchRoom, err)
		},
	})
	c.chat = cs
	cs.Start(c.ctx)
	return nil
}

func (c *connection) stopChat() {
	c.chatMu.Lock()
	defer c.chatMu.Unlock()
	if c.chat != nil {
		c.chat.Stop()
		c.chat = nil
	}
}
