package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProfileType string

const (
	ProfileTypePatient      ProfileType = "patient"
	ProfileTypeProfessional ProfileType = "professional"
)

type Role string

const (
	RoleSuperAdmin   Role = "super-admin"
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
)

const (
	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
)

// UserProfile is the per-account profile document. ID equals Account.ID.
type UserProfile struct {
	ID                  string                      `gorm:"size:36;primaryKey" json:"id"`
	TenantID            string                      `gorm:"size:64;not null;index" json:"tenant_id"`
	FullName            string                      `gorm:"size:255" json:"full_name"`
	Email               string                      `gorm:"size:255;index" json:"email"`
	ProfileType         ProfileType                 `gorm:"size:20;not null;default:'patient'" json:"profile_type"`
	Role                Role                        `gorm:"size:20" json:"role,omitempty"`
	CalorieGoal         int                         `json:"calorie_goal"`
	ProteinGoal         int                         `json:"protein_goal"`
	WaterGoal           int                         `json:"water_goal"`
	Weight              float64                     `json:"weight"`
	TargetWeight        float64                     `json:"target_weight"`
	TargetDate          *time.Time                  `json:"target_date,omitempty"`
	PatientRoomID       *string                     `gorm:"size:36;index" json:"patient_room_id"`
	ProfessionalRoomIDs datatypes.JSONSlice[string] `json:"professional_room_ids"`
	SubscriptionStatus  string                      `gorm:"size:20;default:'inactive'" json:"subscription_status"`
	SubscriptionPlan    string                      `gorm:"size:50" json:"subscription_plan,omitempty"`
	SubscriptionEndsAt  *time.Time                  `json:"subscription_ends_at,omitempty"`
	DashboardShareCode  string                      `gorm:"size:8;uniqueIndex" json:"dashboard_share_code"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

func (p *UserProfile) IsProfessional() bool {
	return p.ProfileType == ProfileTypeProfessional
}

func (p *UserProfile) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
