package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"gorm.io/gorm"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantExists       = errors.New("tenant already exists")
	ErrInvalidTenantID    = errors.New("tenant id must be a lowercase slug (a-z, 0-9, -)")
	ErrDefaultTenant      = errors.New("the default tenant cannot be deleted")
	ErrInvalidSiteConfig  = errors.New("invalid site config")
	ErrUploadsUnavailable = errors.New("logo uploads are not configured")
)

var tenantSlug = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,62}[a-z0-9])?$`)

// LogoUploader stores a logo image and returns its public URL.
type LogoUploader interface {
	UploadLogo(ctx context.Context, tenantID, filename, contentType string, body io.Reader) (string, error)
}

type AdminService struct {
	db       *gorm.DB
	feed     realtime.Feed
	registry *tenant.Registry
	configs  *siteconfig.GormStore
	uploader LogoUploader
}

// NewAdminService creates the super-admin service. uploader may be nil.
func NewAdminService(db *gorm.DB, feed realtime.Feed, registry *tenant.Registry, configs *siteconfig.GormStore, uploader LogoUploader) *AdminService {
	return &AdminService{db: db, feed: feed, registry: registry, configs: configs, uploader: uploader}
}

func (s *AdminService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

func (s *AdminService) CreateTenant(ctx context.Context, req *dto.CreateTenantRequest) (*models.Tenant, error) {
	id := strings.TrimSpace(req.ID)
	if !tenantSlug.MatchString(id) {
		return nil, ErrInvalidTenantID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}

	t := models.Tenant{ID: id, Name: name, Domain: normalizeDomain(req.Domain), IsActive: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tenant{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTenantExists
		}
		return tx.Create(&t).Error
	})
	if err != nil {
		return nil, err
	}

	s.refreshRegistry(ctx)
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(id))
	return &t, nil
}

func (s *AdminService) UpdateTenant(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Domain != nil {
		updates["domain"] = normalizeDomain(req.Domain)
	}
	if req.IsActive != nil {
		if id == models.DefaultTenantID && !*req.IsActive {
			return nil, ErrDefaultTenant
		}
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&t).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update tenant: %w", err)
		}
		if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
			return nil, err
		}
	}

	s.refreshRegistry(ctx)
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(id))
	return &t, nil
}

// DeleteTenant removes a tenant with all of its users, rooms, library
// content and site configuration in one transaction.
func (s *AdminService) DeleteTenant(ctx context.Context, id string) error {
	if id == models.DefaultTenantID {
		return ErrDefaultTenant
	}

	var topics []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tenant
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return err
		}

		var userIDs []string
		if err := tx.Model(&models.UserProfile{}).Where("tenant_id = ?", id).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		var accountIDs []string
		if err := tx.Unscoped().Model(&models.Account{}).Where("tenant_id = ?", id).Pluck("id", &accountIDs).Error; err != nil {
			return err
		}
		userIDs = mergeIDs(userIDs, accountIDs)

		var err error
		if topics, err = purgeUsers(ctx, tx, userIDs); err != nil {
			return err
		}

		scoped := []interface{}{
			&models.Room{},
			&models.PlanTemplate{},
			&models.Guideline{},
			&models.Payment{},
			&models.RefreshToken{},
			&models.SiteConfigOverride{},
		}
		for _, m := range scoped {
			if err := tx.Scopes(tenant.ForTenant(id)).Delete(m).Error; err != nil {
				return fmt.Errorf("failed to delete tenant data: %w", err)
			}
		}
		return tx.Delete(&t).Error
	})
	if err != nil {
		return err
	}

	s.refreshRegistry(ctx)
	topics = append(topics, realtime.TenantTopic(id), realtime.SiteConfigTopic(id))
	realtime.PublishAll(ctx, s.feed, topics...)
	return nil
}

// SiteConfigOverride returns the tenant's raw override document, or nil.
func (s *AdminService) SiteConfigOverride(ctx context.Context, tenantID string) (json.RawMessage, error) {
	raw, exists, err := s.configs.LoadOverride(ctx, tenantID)
	if err != nil || !exists {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// PutSiteConfig replaces the tenant's override. It is rejected unless the
// merged result passes validation.
func (s *AdminService) PutSiteConfig(ctx context.Context, tenantID string, raw []byte, actorID string) (*siteconfig.SiteConfig, error) {
	if !s.registry.Exists(tenantID) {
		return nil, ErrTenantNotFound
	}
	cfg, err := siteconfig.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSiteConfig, err)
	}
	if err := s.configs.SaveOverride(ctx, tenantID, raw, actorID); err != nil {
		return nil, fmt.Errorf("failed to save site config: %w", err)
	}

	slog.Info("site config updated", "tenant_id", tenantID, "user_id", actorID)
	realtime.PublishAll(ctx, s.feed, realtime.SiteConfigTopic(tenantID))
	return &cfg, nil
}

func (s *AdminService) DeleteSiteConfig(ctx context.Context, tenantID string) error {
	if _, err := s.configs.DeleteOverride(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to delete site config: %w", err)
	}
	realtime.PublishAll(ctx, s.feed, realtime.SiteConfigTopic(tenantID))
	return nil
}

// UploadLogo stores the image and points the tenant's logo at it.
func (s *AdminService) UploadLogo(ctx context.Context, tenantID, filename, contentType string, body io.Reader, actorID string) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsUnavailable
	}
	if !s.registry.Exists(tenantID) {
		return "", ErrTenantNotFound
	}

	url, err := s.uploader.UploadLogo(ctx, tenantID, filename, contentType, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	doc := map[string]interface{}{}
	if raw, exists, err := s.configs.LoadOverride(ctx, tenantID); err != nil {
		return "", err
	} else if exists && len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
			doc = map[string]interface{}{}
		}
	}
	logo, _ := doc["logo"].(map[string]interface{})
	if logo == nil {
		logo = map[string]interface{}{}
	}
	logo["type"] = string(siteconfig.LogoImage)
	logo["image_url"] = url
	doc["logo"] = logo

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	if _, err := s.PutSiteConfig(ctx, tenantID, raw, actorID); err != nil {
		return "", err
	}
	return url, nil
}

func (s *AdminService) refreshRegistry(ctx context.Context) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Refresh(ctx); err != nil {
		slog.Error("tenant registry refresh failed", "error", err)
	}
}

func normalizeDomain(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*d))
	if v == "" {
		return nil
	}
	return &v
}

func mergeIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(a, b...) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
