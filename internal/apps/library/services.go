package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrTitleRequired    = errors.New("title and content are required")
	ErrTemplateNotFound = errors.New("plan template not found")
	ErrGuidelineMissing = errors.New("guideline not found")
	ErrNotAuthor        = errors.New("only the author can change this item")
)

// PlanApplier installs a plan on a room.
type PlanApplier interface {
	UpdateActivePlan(ctx context.Context, roomID, actorID string, plan models.MealPlan) (*models.Room, error)
}

type LibraryService struct {
	db    *gorm.DB
	feed  realtime.Feed
	rooms PlanApplier
}

func NewLibraryService(db *gorm.DB, feed realtime.Feed, rooms PlanApplier) *LibraryService {
	return &LibraryService{db: db, feed: feed, rooms: rooms}
}

func (s *LibraryService) ListTemplates(ctx context.Context, tenantID string) ([]models.PlanTemplate, error) {
	var templates []models.PlanTemplate
	err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).Order("name ASC").Find(&templates).Error
	return templates, err
}

func (s *LibraryService) CreateTemplate(ctx context.Context, tenantID, authorID string, req TemplateRequest) (*models.PlanTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	t := models.PlanTemplate{
		TenantID:    tenantID,
		AuthorID:    authorID,
		Name:        name,
		Description: req.Description,
		Plan:        datatypes.NewJSONType(req.Plan),
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(tenantID))
	return &t, nil
}

func (s *LibraryService) UpdateTemplate(ctx context.Context, tenantID, authorID, id string, req TemplateRequest) (*models.PlanTemplate, error) {
	t, err := s.template(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != authorID {
		return nil, ErrNotAuthor
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	t.Name = name
	t.Description = req.Description
	t.Plan = datatypes.NewJSONType(req.Plan)
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(tenantID))
	return t, nil
}

// DeleteTemplate removes a template. An empty authorID skips the author check
// (admin deletion).
func (s *LibraryService) DeleteTemplate(ctx context.Context, tenantID, authorID, id string) error {
	t, err := s.template(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if authorID != "" && t.AuthorID != authorID {
		return ErrNotAuthor
	}
	if err := s.db.WithContext(ctx).Delete(t).Error; err != nil {
		return err
	}
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(tenantID))
	return nil
}

// ApplyTemplate installs a template's plan as the room's active plan. The
// room service records the previous plan in the room history.
func (s *LibraryService) ApplyTemplate(ctx context.Context, tenantID, actorID, templateID, roomID string) (*models.Room, error) {
	t, err := s.template(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	return s.rooms.UpdateActivePlan(ctx, roomID, actorID, t.Plan.Data())
}

func (s *LibraryService) template(ctx context.Context, tenantID, id string) (*models.PlanTemplate, error) {
	var t models.PlanTemplate
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *LibraryService) ListGuidelines(ctx context.Context, tenantID, category string) ([]models.Guideline, error) {
	q := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID))
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var guidelines []models.Guideline
	err := q.Order("created_at DESC").Find(&guidelines).Error
	return guidelines, err
}

func (s *LibraryService) CreateGuideline(ctx context.Context, tenantID, authorID string, req GuidelineRequest) (*models.Guideline, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" {
		return nil, ErrTitleRequired
	}
	g := models.Guideline{
		TenantID: tenantID,
		AuthorID: authorID,
		Title:    title,
		Content:  req.Content,
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, fmt.Errorf("failed to create guideline: %w", err)
	}
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(tenantID))
	return &g, nil
}

func (s *LibraryService) DeleteGuideline(ctx context.Context, tenantID, authorID, id string) error {
	var g models.Guideline
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGuidelineMissing
		}
		return err
	}
	if authorID != "" && g.AuthorID != authorID {
		return ErrNotAuthor
	}
	if err := s.db.WithContext(ctx).Delete(&g).Error; err != nil {
		return err
	}
	realtime.PublishAll(ctx, s.feed, realtime.TenantTopic(tenantID))
	return nil
}

// isPermission reports authorization failures raised by the room service.
func isPermission(err error) bool {
	return errors.Is(err, services.ErrPermissionDenied)
}
