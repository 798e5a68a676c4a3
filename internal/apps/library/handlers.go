package library

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type LibraryHandler struct {
	service *LibraryService
}

func NewLibraryHandler(service *LibraryService) *LibraryHandler {
	return &LibraryHandler{service: service}
}

func (h *LibraryHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.service.ListTemplates(c.UserContext(), tenant.GetTenantID(c))
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (h *LibraryHandler) CreateTemplate(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	t, err := h.service.CreateTemplate(c.UserContext(), tenant.GetTenantID(c), userID, req)
	if err != nil {
		return libraryError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *LibraryHandler) UpdateTemplate(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	t, err := h.service.UpdateTemplate(c.UserContext(), tenant.GetTenantID(c), userID, c.Params("id"), req)
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(t)
}

func (h *LibraryHandler) DeleteTemplate(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	if err := h.service.DeleteTemplate(c.UserContext(), tenant.GetTenantID(c), userID, c.Params("id")); err != nil {
		return libraryError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ApplyTemplate handles POST /library/templates/:id/apply
func (h *LibraryHandler) ApplyTemplate(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req ApplyTemplateRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return invalidBody(c)
	}

	room, err := h.service.ApplyTemplate(c.UserContext(), tenant.GetTenantID(c), userID, c.Params("id"), req.RoomID)
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(room)
}

func (h *LibraryHandler) ListGuidelines(c *fiber.Ctx) error {
	guidelines, err := h.service.ListGuidelines(c.UserContext(), tenant.GetTenantID(c), c.Query("category"))
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(fiber.Map{"guidelines": guidelines})
}

func (h *LibraryHandler) CreateGuideline(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req GuidelineRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	g, err := h.service.CreateGuideline(c.UserContext(), tenant.GetTenantID(c), userID, req)
	if err != nil {
		return libraryError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

func (h *LibraryHandler) DeleteGuideline(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	if err := h.service.DeleteGuideline(c.UserContext(), tenant.GetTenantID(c), userID, c.Params("id")); err != nil {
		return libraryError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Admin ---

func (h *LibraryHandler) AdminListTemplates(c *fiber.Ctx) error {
	templates, err := h.service.ListTemplates(c.UserContext(), c.Params("tenant_id"))
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (h *LibraryHandler) AdminDeleteTemplate(c *fiber.Ctx) error {
	if err := h.service.DeleteTemplate(c.UserContext(), c.Params("tenant_id"), "", c.Params("id")); err != nil {
		return libraryError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LibraryHandler) AdminDeleteGuideline(c *fiber.Ctx) error {
	if err := h.service.DeleteGuideline(c.UserContext(), c.Params("tenant_id"), "", c.Params("id")); err != nil {
		return libraryError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func authRequired(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": true, "message": "Authentication required",
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": true, "message": "Invalid request body",
	})
}

func libraryError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Library request failed"
	switch {
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrTitleRequired):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, ErrGuidelineMissing), errors.Is(err, services.ErrRoomNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, ErrNotAuthor):
		status, msg = fiber.StatusForbidden, err.Error()
	case isPermission(err):
		status, msg = fiber.StatusForbidden, "Permission denied"
	}
	return c.Status(status).JSON(fiber.Map{"error": true, "message": msg})
}
