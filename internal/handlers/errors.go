package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// permissionDenied is the dedicated channel for authorization failures.
// Every failure is reported to Sentry and logged; the reason only reaches
// the client in development.
func permissionDenied(c *fiber.Ctx, err error, detailed bool) error {
	userID, _ := tenant.GetUserID(c)
	slog.Warn("permission denied",
		"tenant_id", tenant.GetTenantID(c),
		"user_id", userID,
		"path", c.Path(),
		"error", err,
	)

	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("channel", "permission")
			scope.SetUser(sentry.User{ID: userID})
			hub.CaptureException(err)
		})
	}

	message := "Permission denied"
	var perr *services.PermissionError
	if detailed && errors.As(err, &perr) {
		message = "Permission denied: " + perr.Reason
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func internalError(c *fiber.Ctx, msg string, err error) error {
	slog.Error(msg, "path", c.Path(), "tenant_id", tenant.GetTenantID(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func upstreamError(c *fiber.Ctx, msg string, err error) error {
	slog.Error("upstream call failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
