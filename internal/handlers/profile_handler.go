package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return h.profileError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil || len(fields) == 0 {
		return badRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.UpdateProfile(c.UserContext(), userID, fields)
	if err != nil {
		return h.profileError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) RegenerateShareCode(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	code, err := h.profileService.RegenerateShareCode(c.UserContext(), userID)
	if err != nil {
		return h.profileError(c, err)
	}
	return c.JSON(fiber.Map{"dashboard_share_code": code})
}

func (h *ProfileHandler) profileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Profile not found",
		})
	case errors.Is(err, services.ErrFieldNotEditable), errors.Is(err, services.ErrInvalidFieldValue):
		return badRequest(c, err.Error())
	}
	return internalError(c, "Failed to process profile", err)
}
