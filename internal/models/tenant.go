package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultTenantID is the platform tenant every unresolved visitor falls back to.
const DefaultTenantID = "default"

type Tenant struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Domain    *string   `gorm:"size:255;uniqueIndex" json:"domain,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteConfigOverride is a tenant's partial site configuration document.
// It is merged over the built-in defaults when read; never read directly by clients.
type SiteConfigOverride struct {
	TenantID  string         `gorm:"size:64;primaryKey" json:"tenant_id"`
	Data      datatypes.JSON `json:"data"`
	UpdatedBy string         `gorm:"size:36" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (SiteConfigOverride) TableName() string {
	return "site_configs"
}

type PlanTemplate struct {
	ID          string                       `gorm:"size:36;primaryKey" json:"id"`
	TenantID    string                       `gorm:"size:64;not null;index" json:"tenant_id"`
	AuthorID    string                       `gorm:"size:36;not null" json:"author_id"`
	Name        string                       `gorm:"size:255;not null" json:"name"`
	Description string                       `gorm:"type:text" json:"description"`
	Plan        datatypes.JSONType[MealPlan] `json:"plan"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func (p *PlanTemplate) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Guideline struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	TenantID  string    `gorm:"size:64;not null;index" json:"tenant_id"`
	AuthorID  string    `gorm:"size:36;not null" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Category  string    `gorm:"size:50" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Guideline) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
