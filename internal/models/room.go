package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PatientInfo is a denormalized snapshot of the patient taken when the room is created.
type PatientInfo struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Age          int     `json:"age,omitempty"`
	Weight       float64 `json:"weight,omitempty"`
	TargetWeight float64 `json:"target_weight,omitempty"`
}

type PlannedFood struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity,omitempty"`
	Calories float64 `json:"calories,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
}

type PlannedMeal struct {
	Name  string        `json:"name"`
	Time  string        `json:"time,omitempty"`
	Items []PlannedFood `json:"items"`
	Notes string        `json:"notes,omitempty"`
}

// MealPlan holds the goals and scheduled meals that are currently in effect for a patient.
type MealPlan struct {
	CalorieGoal int           `json:"calorie_goal"`
	ProteinGoal int           `json:"protein_goal,omitempty"`
	WaterGoal   int           `json:"water_goal,omitempty"`
	Meals       []PlannedMeal `json:"meals"`
	UpdatedBy   string        `json:"updated_by,omitempty"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// IsZero reports whether no plan has ever been installed.
func (p MealPlan) IsZero() bool {
	return p.CalorieGoal == 0 && p.ProteinGoal == 0 && p.WaterGoal == 0 && len(p.Meals) == 0 && p.UpdatedAt == nil
}

type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Room struct {
	ID             string                                   `gorm:"size:36;primaryKey" json:"id"`
	TenantID       string                                   `gorm:"size:64;not null;index" json:"tenant_id"`
	RoomName       string                                   `gorm:"size:255" json:"room_name"`
	ProfessionalID string                                   `gorm:"size:36;not null;index" json:"professional_id"`
	PatientID      string                                   `gorm:"size:36;not null;uniqueIndex" json:"patient_id"`
	PatientInfo    datatypes.JSONType[PatientInfo]          `json:"patient_info"`
	ActivePlan     datatypes.JSONType[MealPlan]             `json:"active_plan"`
	PlanHistory    datatypes.JSONSlice[MealPlan]            `json:"plan_history"`
	LastMessage    datatypes.JSONType[*LastMessage]         `json:"last_message"`
	LastRead       datatypes.JSONType[map[string]time.Time] `json:"last_read"`
	CreatedAt      time.Time                                `json:"created_at"`
	UpdatedAt      time.Time                                `json:"updated_at"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// HasParticipant reports whether userID is the room's professional or patient.
func (r *Room) HasParticipant(userID string) bool {
	return r.ProfessionalID == userID || r.PatientID == userID
}

type Message struct {
	ID             string    `gorm:"size:36;primaryKey" json:"id"`
	RoomID         string    `gorm:"size:36;not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	SenderID       string    `gorm:"size:36;not null" json:"sender_id"`
	SenderName     string    `gorm:"size:255" json:"sender_name"`
	IsProfessional bool      `json:"is_professional"`
	CreatedAt      time.Time `gorm:"index:idx_messages_room_created,priority:2" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
