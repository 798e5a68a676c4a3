package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrFieldNotEditable  = errors.New("field is not editable")
	ErrInvalidFieldValue = errors.New("invalid field value")
)

// editableFields maps the profile fields a user may change to their value parser.
var editableFields = map[string]func(interface{}) (interface{}, bool){
	"full_name":     asString,
	"calorie_goal":  asInt,
	"protein_goal":  asInt,
	"water_goal":    asInt,
	"weight":        asFloat,
	"target_weight": asFloat,
	"target_date":   asDate,
}

type ProfileService struct {
	db   *gorm.DB
	feed realtime.Feed
}

func NewProfileService(db *gorm.DB, feed realtime.Feed) *ProfileService {
	return &ProfileService{db: db, feed: feed}
}

// LoadProfile reads a profile; exists is false when there is none yet.
func (s *ProfileService) LoadProfile(ctx context.Context, userID string) (*models.UserProfile, bool, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, exists, err := s.LoadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !exists {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// UpdateProfile applies a partial update restricted to user-editable fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) (*models.UserProfile, error) {
	updates := make(map[string]interface{}, len(fields))
	for key, raw := range fields {
		parse, ok := editableFields[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotEditable, key)
		}
		value, ok := parse(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFieldValue, key)
		}
		updates[key] = value
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	realtime.PublishAll(ctx, s.feed, realtime.UserTopic(userID))
	return s.GetProfile(ctx, userID)
}

// RegenerateShareCode replaces the user's invite code.
func (s *ProfileService) RegenerateShareCode(ctx context.Context, userID string) (string, error) {
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.UserProfile
		if err := tx.First(&profile, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		var err error
		if code, err = uniqueShareCode(ctx, tx); err != nil {
			return err
		}
		return tx.Model(&profile).Update("dashboard_share_code", code).Error
	})
	if err != nil {
		return "", err
	}

	realtime.PublishAll(ctx, s.feed, realtime.UserTopic(userID))
	return code, nil
}

func asString(v interface{}) (interface{}, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v interface{}) (interface{}, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(int(n)) {
			return nil, false
		}
		return int(n), true
	case int:
		return n, n >= 0
	}
	return nil, false
}

func asFloat(v interface{}) (interface{}, bool) {
	switch n := v.(type) {
	case float64:
		return n, n >= 0
	case int:
		return float64(n), n >= 0
	}
	return nil, false
}

func asDate(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}
