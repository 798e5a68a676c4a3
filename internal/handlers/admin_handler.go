package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListTenants(c *fiber.Ctx) error {
	tenants, err := h.adminService.ListTenants(c.UserContext())
	if err != nil {
		return internalError(c, "Failed to list tenants", err)
	}
	return c.JSON(fiber.Map{"tenants": tenants})
}

func (h *AdminHandler) CreateTenant(c *fiber.Ctx) error {
	var req dto.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.adminService.CreateTenant(c.UserContext(), &req)
	if err != nil {
		return h.adminError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *AdminHandler) UpdateTenant(c *fiber.Ctx) error {
	var req dto.UpdateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.adminService.UpdateTenant(c.UserContext(), c.Params("tenant_id"), &req)
	if err != nil {
		return h.adminError(c, err)
	}
	return c.JSON(t)
}

func (h *AdminHandler) DeleteTenant(c *fiber.Ctx) error {
	if err := h.adminService.DeleteTenant(c.UserContext(), c.Params("tenant_id")); err != nil {
		return h.adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Tenant deleted"})
}

// GetSiteConfig returns the raw override document; null when the tenant
// uses the defaults.
func (h *AdminHandler) GetSiteConfig(c *fiber.Ctx) error {
	raw, err := h.adminService.SiteConfigOverride(c.UserContext(), c.Params("tenant_id"))
	if err != nil {
		return internalError(c, "Failed to load site config", err)
	}
	return c.JSON(fiber.Map{"tenant_id": c.Params("tenant_id"), "override": raw})
}

func (h *AdminHandler) PutSiteConfig(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return badRequest(c, "Invalid request body")
	}

	cfg, err := h.adminService.PutSiteConfig(c.UserContext(), c.Params("tenant_id"), body, actorID(c))
	if err != nil {
		return h.adminError(c, err)
	}
	return c.JSON(fiber.Map{"tenant_id": c.Params("tenant_id"), "config": cfg})
}

func (h *AdminHandler) DeleteSiteConfig(c *fiber.Ctx) error {
	if err := h.adminService.DeleteSiteConfig(c.UserContext(), c.Params("tenant_id")); err != nil {
		return internalError(c, "Failed to delete site config", err)
	}
	return c.JSON(fiber.Map{"message": "Site config reset to defaults"})
}

// UploadLogo takes a multipart "logo" file.
func (h *AdminHandler) UploadLogo(c *fiber.Ctx) error {
	fh, err := c.FormFile("logo")
	if err != nil {
		return badRequest(c, "Missing logo file")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "Unreadable logo file")
	}
	defer f.Close()

	url, err := h.adminService.UploadLogo(c.UserContext(), c.Params("tenant_id"), fh.Filename, fh.Header.Get("Content-Type"), f, actorID(c))
	if err != nil {
		return h.adminError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LogoUploadResponse{URL: url})
}

func (h *AdminHandler) adminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTenantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrTenantExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTenantID),
		errors.Is(err, services.ErrDefaultTenant),
		errors.Is(err, services.ErrInvalidSiteConfig),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrTooLarge):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrUploadsUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrUpstream):
		return upstreamError(c, "Logo upload failed", err)
	}
	return internalError(c, "Admin operation failed", err)
}

// actorID is the acting user, or "service" for the service account.
func actorID(c *fiber.Ctx) string {
	if id, err := tenant.GetUserID(c); err == nil {
		return id
	}
	return "service"
}
