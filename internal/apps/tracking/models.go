package tracking

import (
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
)

var MealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

// --- DTOs ---

type MealRequest struct {
	Date        string  `json:"date"`
	MealType    string  `json:"meal_type"`
	Description string  `json:"description"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
}

type WaterRequest struct {
	Date     string `json:"date"`
	AmountML int    `json:"amount_ml"`
}

type WeightRequest struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Goals struct {
	Calories     int     `json:"calories"`
	Protein      int     `json:"protein"`
	WaterML      int     `json:"water_ml"`
	TargetWeight float64 `json:"target_weight,omitempty"`
}

// Dashboard is one user's day at a glance.
type Dashboard struct {
	Date     string             `json:"date"`
	Meals    []models.MealEntry `json:"meals"`
	Totals   Totals             `json:"totals"`
	WaterML  int                `json:"water_ml"`
	Goals    Goals              `json:"goals"`
	Weights  []models.WeightLog `json:"weights"`
	Progress map[string]float64 `json:"progress"`
}
