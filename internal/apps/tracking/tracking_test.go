package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *TrackingService {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewTrackingService(db, realtime.NewLocalFeed())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, db.Create(&models.UserProfile{
		ID: "pat", TenantID: "default", CalorieGoal: 2000, ProteinGoal: 100, WaterGoal: 2000,
		DashboardShareCode: "PATIENT1",
	}).Error)
	require.NoError(t, db.Create(&models.UserProfile{
		ID: "pro", TenantID: "default", ProfileType: models.ProfileTypeProfessional, DashboardShareCode: "PROFESS1",
	}).Error)
	return svc
}

func TestAddMealValidates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "brunch"})
	assert.ErrorIs(t, err, ErrInvalidMealType)

	_, err = svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "lunch", Date: "14/03/2026"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "lunch", Calories: -5})
	assert.ErrorIs(t, err, ErrNegativeValue)

	entry, err := svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "lunch", Calories: 600})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", entry.Date)
}

func TestMealOwnership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	entry, err := svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "dinner", Calories: 500})
	require.NoError(t, err)

	_, err = svc.UpdateMeal(ctx, "pro", entry.ID, MealRequest{MealType: "dinner"})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, svc.DeleteMeal(ctx, "pro", entry.ID), ErrNotOwner)

	updated, err := svc.UpdateMeal(ctx, "pat", entry.ID, MealRequest{MealType: "snack", Calories: 200})
	require.NoError(t, err)
	assert.Equal(t, "snack", updated.MealType)
	assert.Equal(t, entry.Date, updated.Date)

	require.NoError(t, svc.DeleteMeal(ctx, "pat", entry.ID))
	assert.ErrorIs(t, svc.DeleteMeal(ctx, "pat", entry.ID), ErrEntryNotFound)
}

func TestWaterKeepsOneRowPerDay(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddWater(ctx, "default", "pat", WaterRequest{AmountML: 250})
	require.NoError(t, err)
	entry, err := svc.AddWater(ctx, "default", "pat", WaterRequest{AmountML: 500})
	require.NoError(t, err)
	assert.Equal(t, "pat_2026-03-14", entry.ID)
	assert.Equal(t, 750, entry.AmountML)

	entry, err = svc.AddWater(ctx, "default", "pat", WaterRequest{AmountML: -1000})
	require.NoError(t, err)
	assert.Equal(t, 0, entry.AmountML)

	entry, err = svc.SetWater(ctx, "default", "pat", WaterRequest{AmountML: 1200})
	require.NoError(t, err)
	assert.Equal(t, 1200, entry.AmountML)

	_, err = svc.SetWater(ctx, "default", "pat", WaterRequest{AmountML: -1})
	assert.ErrorIs(t, err, ErrNegativeValue)

	var count int64
	svc.db.Model(&models.HydrationEntry{}).Where("user_id = ?", "pat").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLogWeightUpdatesProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.LogWeight(ctx, "default", "pat", WeightRequest{Weight: 0})
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = svc.LogWeight(ctx, "default", "pat", WeightRequest{Weight: 82.5, Date: "2026-03-13"})
	require.NoError(t, err)
	_, err = svc.LogWeight(ctx, "default", "pat", WeightRequest{Weight: 81.9})
	require.NoError(t, err)

	var profile models.UserProfile
	require.NoError(t, svc.db.First(&profile, "id = ?", "pat").Error)
	assert.Equal(t, 81.9, profile.Weight)

	logs, err := svc.ListWeights(ctx, "pat", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2026-03-14", logs[0].Date)
}

func TestDashboardAggregates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "breakfast", Calories: 400, Protein: 20})
	require.NoError(t, err)
	_, err = svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "lunch", Calories: 600, Protein: 30})
	require.NoError(t, err)
	_, err = svc.AddMeal(ctx, "default", "pat", MealRequest{MealType: "lunch", Calories: 900, Date: "2026-03-13"})
	require.NoError(t, err)
	_, err = svc.AddWater(ctx, "default", "pat", WaterRequest{AmountML: 1000})
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, "pat", "")
	require.NoError(t, err)
	assert.Len(t, d.Meals, 2)
	assert.Equal(t, 1000.0, d.Totals.Calories)
	assert.Equal(t, 50.0, d.Totals.Protein)
	assert.Equal(t, 1000, d.WaterML)
	assert.Equal(t, 2000, d.Goals.Calories)
	assert.InDelta(t, 0.5, d.Progress["calories"], 1e-9)
	assert.InDelta(t, 0.5, d.Progress["water"], 1e-9)

	_, err = svc.Dashboard(ctx, "ghost", "")
	assert.ErrorIs(t, err, services.ErrProfileNotFound)
}

func TestCanViewRequiresRoomLink(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	assert.NoError(t, svc.CanView(ctx, "pat", "pat"))
	assert.ErrorIs(t, svc.CanView(ctx, "pro", "pat"), services.ErrPermissionDenied)

	require.NoError(t, svc.db.Create(&models.Room{TenantID: "default", ProfessionalID: "pro", PatientID: "pat"}).Error)
	assert.NoError(t, svc.CanView(ctx, "pro", "pat"))
	assert.ErrorIs(t, svc.CanView(ctx, "pat", "pro"), services.ErrPermissionDenied)
}
