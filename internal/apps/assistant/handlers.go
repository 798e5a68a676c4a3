package assistant

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/integrations/nutrition"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type AssistantHandler struct {
	service *AssistantService
}

func NewAssistantHandler(service *AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Nutrition handles POST /assistant/nutrition
func (h *AssistantHandler) Nutrition(c *fiber.Ctx) error {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	totals, err := h.service.Estimate(c.UserContext(), req.Description)
	if err != nil {
		return assistantError(c, err)
	}
	return c.JSON(totals)
}

// Plan handles POST /assistant/plan
func (h *AssistantHandler) Plan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": true, "message": "Authentication required",
		})
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	plan, err := h.service.DraftPlan(c.UserContext(), userID, req.Notes)
	if err != nil {
		return assistantError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

// Chef handles POST /assistant/chef
func (h *AssistantHandler) Chef(c *fiber.Ctx) error {
	var req struct {
		Ingredients []string `json:"ingredients"`
		Notes       string   `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	recipe, err := h.service.Recipe(c.UserContext(), req.Ingredients, req.Notes)
	if err != nil {
		return assistantError(c, err)
	}
	return c.JSON(recipe)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": true, "message": "Invalid request body",
	})
}

func assistantError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrDescriptionRequired), errors.Is(err, ErrDescriptionTooLong), errors.Is(err, ErrIngredientsRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, nutrition.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": true, "message": "Nutrition assistant is not available",
		})
	case errors.Is(err, services.ErrUpstream):
		slog.Error("nutrition workflow failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": true, "message": "Nutrition assistant failed, please try again",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": "Assistant request failed",
	})
}
