package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the authentication identity. Its ID is the UID every other
// per-user record is keyed by.
type Account struct {
	ID        string         `gorm:"size:36;primaryKey" json:"id"`
	TenantID  string         `gorm:"size:64;not null;uniqueIndex:idx_accounts_tenant_email" json:"-"`
	Email     string         `gorm:"not null;size:255;uniqueIndex:idx_accounts_tenant_email" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
