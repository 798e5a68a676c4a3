package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/integrations/nutrition"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
)

const maxDescriptionLength = 1000

var (
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description is too long")
	ErrIngredientsRequired = errors.New("at least one ingredient is required")
)

// NutritionAPI is the outbound nutrition workflow.
type NutritionAPI interface {
	Reference(ctx context.Context, description string) (*nutrition.Totals, error)
	GeneratePlan(ctx context.Context, profile map[string]interface{}, out interface{}) error
	Chef(ctx context.Context, ingredients []string, notes string) (*nutrition.Recipe, error)
}

// ProfileReader loads the caller's profile for plan generation.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type AssistantService struct {
	api      NutritionAPI
	profiles ProfileReader
}

func NewAssistantService(api NutritionAPI, profiles ProfileReader) *AssistantService {
	return &AssistantService{api: api, profiles: profiles}
}

// Estimate returns nutrition totals for a free-text meal description.
func (s *AssistantService) Estimate(ctx context.Context, description string) (*nutrition.Totals, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if len(description) > maxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	totals, err := s.api.Reference(ctx, description)
	if err != nil {
		return nil, upstream(err)
	}
	return totals, nil
}

// DraftPlan asks the workflow for a plan matching the user's goals. The
// draft is returned, not installed; a professional applies it to a room.
func (s *AssistantService) DraftPlan(ctx context.Context, userID, notes string) (*models.MealPlan, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	input := map[string]interface{}{
		"calorie_goal":  profile.CalorieGoal,
		"protein_goal":  profile.ProteinGoal,
		"water_goal":    profile.WaterGoal,
		"weight":        profile.Weight,
		"target_weight": profile.TargetWeight,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		input["notes"] = notes
	}

	var plan models.MealPlan
	if err := s.api.GeneratePlan(ctx, input, &plan); err != nil {
		return nil, upstream(err)
	}
	if plan.CalorieGoal == 0 {
		plan.CalorieGoal = profile.CalorieGoal
	}
	if plan.Meals == nil {
		plan.Meals = []models.PlannedMeal{}
	}
	plan.UpdatedAt = nil
	plan.UpdatedBy = ""
	return &plan, nil
}

func (s *AssistantService) Recipe(ctx context.Context, ingredients []string, notes string) (*nutrition.Recipe, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, in := range ingredients {
		if in = strings.TrimSpace(in); in != "" {
			cleaned = append(cleaned, in)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrIngredientsRequired
	}
	recipe, err := s.api.Chef(ctx, cleaned, strings.TrimSpace(notes))
	if err != nil {
		return nil, upstream(err)
	}
	return recipe, nil
}

func upstream(err error) error {
	if errors.Is(err, nutrition.ErrNotConfigured) {
		return err
	}
	return fmt.Errorf("%w: %w", services.ErrUpstream, err)
}
