package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealEntry struct {
	ID          string    `gorm:"size:36;primaryKey" json:"id"`
	TenantID    string    `gorm:"size:64;not null;index" json:"tenant_id"`
	UserID      string    `gorm:"size:36;not null;index:idx_meal_entries_user_date,priority:1" json:"user_id"`
	Date        string    `gorm:"size:10;not null;index:idx_meal_entries_user_date,priority:2" json:"date"`
	MealType    string    `gorm:"size:20" json:"meal_type"`
	Description string    `gorm:"type:text" json:"description"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fat         float64   `json:"fat"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *MealEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// HydrationEntry has a deterministic ID of "{userID}_{date}" so there is one row per user per day.
type HydrationEntry struct {
	ID        string    `gorm:"size:80;primaryKey" json:"id"`
	TenantID  string    `gorm:"size:64;not null;index" json:"tenant_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Date      string    `gorm:"size:10;not null" json:"date"`
	AmountML  int       `json:"amount_ml"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func HydrationID(userID, date string) string {
	return userID + "_" + date
}

type WeightLog struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	TenantID  string    `gorm:"size:64;not null;index" json:"tenant_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Date      string    `gorm:"size:10;not null" json:"date"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *WeightLog) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
