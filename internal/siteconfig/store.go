package siteconfig

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OverrideStore reads tenant override documents.
type OverrideStore interface {
	LoadOverride(ctx context.Context, tenantID string) (raw []byte, exists bool, err error)
}

// GormStore keeps override documents in the site_configs table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LoadOverride(ctx context.Context, tenantID string) ([]byte, bool, error) {
	var row models.SiteConfigOverride
	err := s.db.WithContext(ctx).First(&row, "tenant_id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Data, true, nil
}

// SaveOverride replaces the tenant's override document.
func (s *GormStore) SaveOverride(ctx context.Context, tenantID string, raw []byte, updatedBy string) error {
	row := models.SiteConfigOverride{
		TenantID:  tenantID,
		Data:      datatypes.JSON(raw),
		UpdatedBy: updatedBy,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_by", "updated_at"}),
	}).Create(&row).Error
}

// DeleteOverride removes the tenant's override; it reports whether one existed.
func (s *GormStore) DeleteOverride(ctx context.Context, tenantID string) (bool, error) {
	result := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&models.SiteConfigOverride{})
	return result.RowsAffected > 0, result.Error
}
