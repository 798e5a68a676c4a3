package tracking

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type TrackingHandler struct {
	service *TrackingService
}

func NewTrackingHandler(service *TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

func (h *TrackingHandler) AddMeal(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req MealRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	entry, err := h.service.AddMeal(c.UserContext(), tenant.GetTenantID(c), userID, req)
	if err != nil {
		return trackingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ListMeals handles GET /meals?date=YYYY-MM-DD
func (h *TrackingHandler) ListMeals(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	meals, err := h.service.ListMeals(c.UserContext(), userID, c.Query("date"))
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(fiber.Map{"meals": meals})
}

func (h *TrackingHandler) UpdateMeal(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req MealRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	entry, err := h.service.UpdateMeal(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(entry)
}

func (h *TrackingHandler) DeleteMeal(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	if err := h.service.DeleteMeal(c.UserContext(), userID, c.Params("id")); err != nil {
		return trackingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TrackingHandler) AddWater(c *fiber.Ctx) error {
	return h.water(c, h.service.AddWater)
}

func (h *TrackingHandler) SetWater(c *fiber.Ctx) error {
	return h.water(c, h.service.SetWater)
}

type waterWriter func(ctx context.Context, tenantID, userID string, req WaterRequest) (*models.HydrationEntry, error)

func (h *TrackingHandler) water(c *fiber.Ctx, write waterWriter) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req WaterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	entry, err := write(c.UserContext(), tenant.GetTenantID(c), userID, req)
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(entry)
}

func (h *TrackingHandler) LogWeight(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	var req WeightRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	entry, err := h.service.LogWeight(c.UserContext(), tenant.GetTenantID(c), userID, req)
	if err != nil {
		return trackingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *TrackingHandler) ListWeights(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	logs, err := h.service.ListWeights(c.UserContext(), userID, c.QueryInt("limit", 30))
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(fiber.Map{"weights": logs})
}

// Dashboard handles GET /dashboard and GET /patients/:patient_id/dashboard.
// Professionals may read the dashboard of a patient linked to one of their rooms.
func (h *TrackingHandler) Dashboard(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return authRequired(c)
	}
	subject := userID
	if id := c.Params("patient_id"); id != "" {
		subject = id
	}
	if err := h.service.CanView(c.UserContext(), userID, subject); err != nil {
		return trackingError(c, err)
	}

	d, err := h.service.Dashboard(c.UserContext(), subject, c.Query("date"))
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(d)
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

func trackingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidMealType),
		errors.Is(err, ErrNegativeValue), errors.Is(err, ErrInvalidWeight):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, services.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": true, "message": "Permission denied",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": "Failed to process tracking request",
	})
}
