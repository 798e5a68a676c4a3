package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentExpired = "EXPIRED"
)

// Payment tracks one PIX checkout for a subscription period.
type Payment struct {
	ID          string     `gorm:"size:36;primaryKey" json:"id"`
	TenantID    string     `gorm:"size:64;not null;index" json:"-"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	ProviderID  string     `gorm:"size:255;uniqueIndex" json:"provider_id"`
	AmountCents int        `gorm:"not null" json:"amount_cents"`
	Plan        string     `gorm:"size:50" json:"plan"`
	Status      string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
