package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/chat"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type RoomHandler struct {
	rooms    *services.RoomService
	messages *services.MessageService
	profiles *services.ProfileService
	feed     realtime.Feed
	detailed bool
}

// NewRoomHandler builds the room endpoints. detailed exposes permission
// failure reasons to clients and is only set in development.
func NewRoomHandler(rooms *services.RoomService, messages *services.MessageService, profiles *services.ProfileService, feed realtime.Feed, detailed bool) *RoomHandler {
	return &RoomHandler{rooms: rooms, messages: messages, profiles: profiles, feed: feed, detailed: detailed}
}

func (h *RoomHandler) List(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	rooms, err := h.rooms.ListForUser(c.UserContext(), userID)
	if err != nil {
		return internalError(c, "Failed to list rooms", err)
	}
	return c.JSON(dto.RoomListResponse{Rooms: rooms})
}

func (h *RoomHandler) Create(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	room, err := h.rooms.CreateRoom(c.UserContext(), tenant.GetTenantID(c), userID, req.ShareCode, req.RoomName)
	if err != nil {
		return h.roomError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

func (h *RoomHandler) Get(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	room, err := h.rooms.GetRoom(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.roomError(c, err)
	}
	return c.JSON(dto.RoomSummary{Room: *room, HasUnread: chat.HasUnread(room, userID)})
}

func (h *RoomHandler) Delete(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.rooms.DeleteRoom(c.UserContext(), c.Params("id"), userID); err != nil {
		return h.roomError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Room deleted"})
}

func (h *RoomHandler) UpdatePlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	room, err := h.rooms.UpdateActivePlan(c.UserContext(), c.Params("id"), userID, req.Plan)
	if err != nil {
		return h.roomError(c, err)
	}
	return c.JSON(room)
}

func (h *RoomHandler) Messages(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	room, err := h.rooms.GetRoom(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.roomError(c, err)
	}

	msgs, err := h.messages.ListMessages(c.UserContext(), room.ID)
	if err != nil {
		return internalError(c, "Failed to load messages", err)
	}
	return c.JSON(dto.MessageListResponse{Messages: msgs})
}

func (h *RoomHandler) Send(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	room, err := h.rooms.GetRoom(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.roomError(c, err)
	}
	profile, err := h.profiles.GetProfile(c.UserContext(), userID)
	if err != nil {
		return internalError(c, "Failed to load profile", err)
	}

	me := chat.Participant{ID: userID, Name: profile.FullName, IsProfessional: profile.IsProfessional()}
	if err := chat.NewSession(h.messages, h.feed, room.ID, me, chat.Handlers{}).Send(c.UserContext(), req.Text); err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return badRequest(c, "Message text is required")
		}
		return internalError(c, "Failed to send message", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sent": true})
}

func (h *RoomHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	room, err := h.rooms.GetRoom(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.roomError(c, err)
	}
	if err := h.messages.MarkRead(c.UserContext(), room.ID, userID); err != nil {
		return internalError(c, "Failed to mark room as read", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RoomHandler) roomError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		return permissionDenied(c, err, h.detailed)
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidShareCode):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrPatientHasRoom):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotProfessional):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return internalError(c, "Room operation failed", err)
}
