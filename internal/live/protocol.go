package live

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
)

// Client message types.
const (
	TypeAuth          = "auth"
	TypeLogout        = "logout"
	TypeWatchRoom     = "watch_room"
	TypeUnwatchRoom   = "unwatch_room"
	TypeSend          = "send"
	TypeUpdateProfile = "update_profile"
)

// Server message types.
const (
	TypeSiteConfig = "site_config"
	TypeSession    = "session"
	TypeMessages   = "messages"
	TypeNewMessage = "new_message"
	TypeError      = "error"
)

// Inbound is a client frame. Only the fields relevant to Type are set.
type Inbound struct {
	Type   string                 `json:"type"`
	Token  string                 `json:"token,omitempty"`
	RoomID string                 `json:"room_id,omitempty"`
	Text   string                 `json:"text,omitempty"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type SiteConfigPayload struct {
	TenantID string                `json:"tenant_id"`
	Config   siteconfig.SiteConfig `json:"config"`
}

type SessionPayload struct {
	User     *session.User       `json:"user"`
	Profile  *models.UserProfile `json:"profile"`
	Loading  bool                `json:"loading"`
	Error    string              `json:"error,omitempty"`
	TenantID string              `json:"tenant_id,omitempty"`
}

type MessagesPayload struct {
	RoomID   string           `json:"room_id"`
	Messages []models.Message `json:"messages"`
}

type NewMessagePayload struct {
	RoomID  string         `json:"room_id"`
	Message models.Message `json:"message"`
}

type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}
