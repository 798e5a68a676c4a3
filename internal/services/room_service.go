package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/chat"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrInvalidShareCode = errors.New("invalid share code")
	ErrPatientHasRoom   = errors.New("patient is already linked to a professional")
	ErrNotProfessional  = errors.New("only professionals can create rooms")
)

type RoomService struct {
	db   *gorm.DB
	feed realtime.Feed
}

func NewRoomService(db *gorm.DB, feed realtime.Feed) *RoomService {
	return &RoomService{db: db, feed: feed}
}

// CreateRoom redeems a patient's share code. The room, the professional's
// room list and the patient's back-reference are written in one transaction.
func (s *RoomService) CreateRoom(ctx context.Context, tenantID, professionalID, shareCode, roomName string) (*models.Room, error) {
	shareCode = strings.ToUpper(strings.TrimSpace(shareCode))
	if shareCode == "" {
		return nil, ErrInvalidShareCode
	}

	var room models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prof models.UserProfile
		if err := forUpdate(tx).First(&prof, "id = ? AND tenant_id = ?", professionalID, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if !prof.IsProfessional() {
			return ErrNotProfessional
		}

		var patient models.UserProfile
		if err := forUpdate(tx).First(&patient, "dashboard_share_code = ? AND tenant_id = ?", shareCode, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidShareCode
			}
			return err
		}
		if patient.ID == prof.ID || patient.ProfileType != models.ProfileTypePatient {
			return ErrInvalidShareCode
		}
		if patient.PatientRoomID != nil {
			return ErrPatientHasRoom
		}

		name := strings.TrimSpace(roomName)
		if name == "" {
			name = patient.FullName
		}
		room = models.Room{
			TenantID:       tenantID,
			RoomName:       name,
			ProfessionalID: prof.ID,
			PatientID:      patient.ID,
			PatientInfo: datatypes.NewJSONType(models.PatientInfo{
				Name:         patient.FullName,
				Email:        patient.Email,
				Weight:       patient.Weight,
				TargetWeight: patient.TargetWeight,
			}),
			ActivePlan: datatypes.NewJSONType(models.MealPlan{
				CalorieGoal: patient.CalorieGoal,
				ProteinGoal: patient.ProteinGoal,
				WaterGoal:   patient.WaterGoal,
				Meals:       []models.PlannedMeal{},
			}),
			PlanHistory: datatypes.JSONSlice[models.MealPlan]{},
			LastRead:    datatypes.NewJSONType(map[string]time.Time{}),
		}
		if err := tx.Create(&room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}

		roomIDs := append(datatypes.JSONSlice[string]{}, prof.ProfessionalRoomIDs...)
		roomIDs = append(roomIDs, room.ID)
		if err := tx.Model(&prof).Update("professional_room_ids", roomIDs).Error; err != nil {
			return fmt.Errorf("failed to link professional: %w", err)
		}
		if err := tx.Model(&patient).Update("patient_room_id", room.ID).Error; err != nil {
			return fmt.Errorf("failed to link patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	realtime.PublishAll(ctx, s.feed,
		realtime.RoomTopic(room.ID),
		realtime.UserTopic(room.ProfessionalID),
		realtime.UserTopic(room.PatientID),
	)
	return &room, nil
}

// GetRoom returns the room if userID takes part in it.
func (s *RoomService) GetRoom(ctx context.Context, roomID, userID string) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, denied("user is not a participant of room " + roomID)
	}
	return &room, nil
}

// ListForUser returns the rooms userID takes part in, newest activity first.
func (s *RoomService) ListForUser(ctx context.Context, userID string) ([]dto.RoomSummary, error) {
	var rooms []models.Room
	if err := s.db.WithContext(ctx).
		Where("professional_id = ? OR patient_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	result := make([]dto.RoomSummary, 0, len(rooms))
	for i := range rooms {
		result = append(result, dto.RoomSummary{Room: rooms[i], HasUnread: chat.HasUnread(&rooms[i], userID)})
	}
	return result, nil
}

// DeleteRoom removes a room and reverses the linkage. Only the owning
// professional may do this.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, actorID string) error {
	var topics []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := forUpdate(tx).First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if room.ProfessionalID != actorID {
			return denied("only the room's professional can delete it")
		}
		var err error
		topics, err = unlinkRoomTx(tx, &room)
		return err
	})
	if err != nil {
		return err
	}
	realtime.PublishAll(ctx, s.feed, topics...)
	return nil
}

// UpdateActivePlan installs plan as the room's active plan and appends the
// superseded one to the plan history in the same transaction.
func (s *RoomService) UpdateActivePlan(ctx context.Context, roomID, actorID string, plan models.MealPlan) (*models.Room, error) {
	if plan.Meals == nil {
		plan.Meals = []models.PlannedMeal{}
	}

	var room models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if room.ProfessionalID != actorID {
			return denied("only the room's professional can change its plan")
		}

		history := append(datatypes.JSONSlice[models.MealPlan]{}, room.PlanHistory...)
		if prev := room.ActivePlan.Data(); !prev.IsZero() {
			history = append(history, prev)
		}

		room.ActivePlan = datatypes.NewJSONType(plan)
		room.PlanHistory = history
		return tx.Model(&room).Updates(map[string]interface{}{
			"active_plan":  room.ActivePlan,
			"plan_history": room.PlanHistory,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.PublishAll(ctx, s.feed, realtime.RoomTopic(room.ID))
	return &room, nil
}

// unlinkRoomTx deletes room with its messages and clears both participants'
// references to it. It returns the topics to publish after commit.
func unlinkRoomTx(tx *gorm.DB, room *models.Room) ([]string, error) {
	var prof models.UserProfile
	err := forUpdate(tx).First(&prof, "id = ?", room.ProfessionalID).Error
	switch {
	case err == nil:
		remaining := datatypes.JSONSlice[string]{}
		for _, id := range prof.ProfessionalRoomIDs {
			if id != room.ID {
				remaining = append(remaining, id)
			}
		}
		if err := tx.Model(&prof).Update("professional_room_ids", remaining).Error; err != nil {
			return nil, fmt.Errorf("failed to unlink professional: %w", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := tx.Model(&models.UserProfile{}).
		Where("id = ? AND patient_room_id = ?", room.PatientID, room.ID).
		Update("patient_room_id", nil).Error; err != nil {
		return nil, fmt.Errorf("failed to unlink patient: %w", err)
	}

	if err := tx.Where("room_id = ?", room.ID).Delete(&models.Message{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := tx.Delete(room).Error; err != nil {
		return nil, fmt.Errorf("failed to delete room: %w", err)
	}

	return []string{
		realtime.RoomTopic(room.ID),
		realtime.RoomMessagesTopic(room.ID),
		realtime.UserTopic(room.ProfessionalID),
		realtime.UserTopic(room.PatientID),
	}, nil
}

// purgeUsers deletes the given users and everything they own in one
// transaction, returning the topics to publish after commit.
func purgeUsers(ctx context.Context, db *gorm.DB, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var topics []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rooms []models.Room
		if err := tx.Where("patient_id IN ? OR professional_id IN ?", userIDs, userIDs).Find(&rooms).Error; err != nil {
			return err
		}
		for i := range rooms {
			t, err := unlinkRoomTx(tx, &rooms[i])
			if err != nil {
				return err
			}
			topics = append(topics, t...)
		}

		owned := []interface{}{
			&models.MealEntry{},
			&models.HydrationEntry{},
			&models.WeightLog{},
			&models.Payment{},
		}
		for _, m := range owned {
			if err := tx.Where("user_id IN ?", userIDs).Delete(m).Error; err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		if err := tx.Where("account_id IN ?", userIDs).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", userIDs).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", userIDs).Delete(&models.Account{}).Error
	})
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		topics = append(topics, realtime.UserTopic(id))
	}
	return topics, nil
}

// forUpdate adds a row lock where the dialect supports one.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if database.IsPostgres(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
