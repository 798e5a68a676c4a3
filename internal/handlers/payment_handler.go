package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.paymentService.Checkout(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		if errors.Is(err, services.ErrUpstream) {
			return upstreamError(c, "Payment provider unavailable, please try again", err)
		}
		return internalError(c, "Failed to create payment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	paymentID := c.Params("id")
	status, err := h.paymentService.Status(c.UserContext(), userID, paymentID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Payment not found",
			})
		}
		if errors.Is(err, services.ErrUpstream) {
			return upstreamError(c, "Could not check payment status", err)
		}
		return internalError(c, "Failed to check payment", err)
	}
	return c.JSON(dto.PaymentStatusResponse{PaymentID: paymentID, Status: status})
}
