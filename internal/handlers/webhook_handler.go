package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	paymentService *services.PaymentService
	secret         string
}

func NewWebhookHandler(paymentService *services.PaymentService, secret string) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService, secret: secret}
}

// HandlePayment accepts the payment provider's billing notifications. The
// shared secret arrives as the webhookSecret query param or the
// X-Webhook-Secret header.
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}

	got := c.Get("X-Webhook-Secret")
	if got == "" {
		got = c.Query("webhookSecret")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		return unauthorized(c)
	}

	var webhook dto.PaymentWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.paymentService.HandleWebhook(c.UserContext(), &webhook); err != nil {
		slog.Error("webhook processing failed", "event_type", webhook.Event, "payment_id", webhook.Data.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", webhook.Event, "payment_id", webhook.Data.ID)
	return c.JSON(fiber.Map{"received": true})
}
