package tracking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidMealType = errors.New("meal_type must be breakfast, lunch, dinner or snack")
	ErrNegativeValue   = errors.New("values cannot be negative")
	ErrInvalidWeight   = errors.New("weight must be between 1 and 500")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrNotOwner        = errors.New("you do not own this entry")
)

type TrackingService struct {
	db   *gorm.DB
	feed realtime.Feed
	now  func() time.Time
}

func NewTrackingService(db *gorm.DB, feed realtime.Feed) *TrackingService {
	return &TrackingService{db: db, feed: feed, now: time.Now}
}

// normalizeDate defaults an empty date to today (UTC) and validates the rest.
func (s *TrackingService) normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().UTC().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}

func validateMeal(req *MealRequest) error {
	if !slices.Contains(MealTypes, req.MealType) {
		return ErrInvalidMealType
	}
	if req.Calories < 0 || req.Protein < 0 || req.Carbs < 0 || req.Fat < 0 {
		return ErrNegativeValue
	}
	return nil
}

// CanView reports whether viewerID may read subjectID's entries: their own,
// or a patient linked to the viewer's room.
func (s *TrackingService) CanView(ctx context.Context, viewerID, subjectID string) error {
	if viewerID == subjectID {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("professional_id = ? AND patient_id = ?", viewerID, subjectID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &services.PermissionError{Reason: "not linked to patient " + subjectID}
	}
	return nil
}

func (s *TrackingService) AddMeal(ctx context.Context, tenantID, userID string, req MealRequest) (*models.MealEntry, error) {
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateMeal(&req); err != nil {
		return nil, err
	}

	entry := models.MealEntry{
		TenantID:    tenantID,
		UserID:      userID,
		Date:        date,
		MealType:    req.MealType,
		Description: strings.TrimSpace(req.Description),
		Calories:    req.Calories,
		Protein:     req.Protein,
		Carbs:       req.Carbs,
		Fat:         req.Fat,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}
	return &entry, nil
}

func (s *TrackingService) ListMeals(ctx context.Context, userID, date string) ([]models.MealEntry, error) {
	date, err := s.normalizeDate(date)
	if err != nil {
		return nil, err
	}
	var entries []models.MealEntry
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (s *TrackingService) UpdateMeal(ctx context.Context, userID, id string, req MealRequest) (*models.MealEntry, error) {
	entry, err := s.ownedMeal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Date == "" {
		req.Date = entry.Date
	}
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateMeal(&req); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(entry).Updates(map[string]interface{}{
		"date":        date,
		"meal_type":   req.MealType,
		"description": strings.TrimSpace(req.Description),
		"calories":    req.Calories,
		"protein":     req.Protein,
		"carbs":       req.Carbs,
		"fat":         req.Fat,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return s.ownedMeal(ctx, userID, id)
}

func (s *TrackingService) DeleteMeal(ctx context.Context, userID, id string) error {
	entry, err := s.ownedMeal(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(entry).Error
}

func (s *TrackingService) ownedMeal(ctx context.Context, userID, id string) (*models.MealEntry, error) {
	var entry models.MealEntry
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}
	return &entry, nil
}

// AddWater adds delta millilitres to the day's hydration total. Negative
// deltas are allowed; the total never drops below zero.
func (s *TrackingService) AddWater(ctx context.Context, tenantID, userID string, req WaterRequest) (*models.HydrationEntry, error) {
	return s.writeWater(ctx, tenantID, userID, req, func(current int) int { return current + req.AmountML })
}

// SetWater replaces the day's hydration total.
func (s *TrackingService) SetWater(ctx context.Context, tenantID, userID string, req WaterRequest) (*models.HydrationEntry, error) {
	if req.AmountML < 0 {
		return nil, ErrNegativeValue
	}
	return s.writeWater(ctx, tenantID, userID, req, func(int) int { return req.AmountML })
}

func (s *TrackingService) writeWater(ctx context.Context, tenantID, userID string, req WaterRequest, next func(int) int) (*models.HydrationEntry, error) {
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	var entry models.HydrationEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := models.HydrationID(userID, date)
		q := tx
		if database.IsPostgres(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := q.First(&entry, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = models.HydrationEntry{ID: id, TenantID: tenantID, UserID: userID, Date: date}
			entry.AmountML = max(0, next(0))
			return tx.Create(&entry).Error
		case err != nil:
			return err
		}
		entry.AmountML = max(0, next(entry.AmountML))
		return tx.Model(&entry).Update("amount_ml", entry.AmountML).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save hydration: %w", err)
	}
	return &entry, nil
}

func (s *TrackingService) GetWater(ctx context.Context, userID, date string) (int, error) {
	date, err := s.normalizeDate(date)
	if err != nil {
		return 0, err
	}
	var entry models.HydrationEntry
	err = s.db.WithContext(ctx).First(&entry, "id = ?", models.HydrationID(userID, date)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return entry.AmountML, err
}

// LogWeight appends a weight log and keeps the profile's current weight in step.
func (s *TrackingService) LogWeight(ctx context.Context, tenantID, userID string, req WeightRequest) (*models.WeightLog, error) {
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.Weight < 1 || req.Weight > 500 {
		return nil, ErrInvalidWeight
	}

	entry := models.WeightLog{TenantID: tenantID, UserID: userID, Date: date, Weight: req.Weight}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserProfile{}).Where("id = ?", userID).Update("weight", req.Weight).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log weight: %w", err)
	}

	realtime.PublishAll(ctx, s.feed, realtime.UserTopic(userID))
	return &entry, nil
}

func (s *TrackingService) ListWeights(ctx context.Context, userID string, limit int) ([]models.WeightLog, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	var logs []models.WeightLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Dashboard loads the day's meals, water, recent weights and goals concurrently.
func (s *TrackingService) Dashboard(ctx context.Context, userID, date string) (*Dashboard, error) {
	date, err := s.normalizeDate(date)
	if err != nil {
		return nil, err
	}

	var (
		meals   []models.MealEntry
		water   int
		weights []models.WeightLog
		profile models.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meals, err = s.ListMeals(gctx, userID, date)
		return err
	})
	g.Go(func() (err error) {
		water, err = s.GetWater(gctx, userID, date)
		return err
	})
	g.Go(func() (err error) {
		weights, err = s.ListWeights(gctx, userID, 30)
		return err
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).First(&profile, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrProfileNotFound
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Date:    date,
		Meals:   meals,
		WaterML: water,
		Weights: weights,
		Goals: Goals{
			Calories:     profile.CalorieGoal,
			Protein:      profile.ProteinGoal,
			WaterML:      profile.WaterGoal,
			TargetWeight: profile.TargetWeight,
		},
	}
	for _, m := range meals {
		d.Totals.Calories += m.Calories
		d.Totals.Protein += m.Protein
		d.Totals.Carbs += m.Carbs
		d.Totals.Fat += m.Fat
	}
	d.Progress = map[string]float64{
		"calories": ratio(d.Totals.Calories, float64(d.Goals.Calories)),
		"protein":  ratio(d.Totals.Protein, float64(d.Goals.Protein)),
		"water":    ratio(float64(water), float64(d.Goals.WaterML)),
	}
	return d, nil
}

func ratio(value, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return value / goal
}
