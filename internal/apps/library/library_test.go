package library

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T) *LibraryService {
	t.Helper()
	db := testutil.NewDB(t)
	feed := realtime.NewLocalFeed()
	return NewLibraryService(db, feed, services.NewRoomService(db, feed))
}

var samplePlan = models.MealPlan{
	CalorieGoal: 1800,
	Meals:       []models.PlannedMeal{{Name: "Breakfast", Items: []models.PlannedFood{{Name: "Oats"}}}},
}

func TestTemplatesAreTenantScoped(t *testing.T) {
	svc := newLibrary(t)
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, "clinic-a", "pro", TemplateRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	a, err := svc.CreateTemplate(ctx, "clinic-a", "pro", TemplateRequest{Name: "Cutting", Plan: samplePlan})
	require.NoError(t, err)
	_, err = svc.CreateTemplate(ctx, "clinic-b", "pro", TemplateRequest{Name: "Bulking"})
	require.NoError(t, err)

	list, err := svc.ListTemplates(ctx, "clinic-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cutting", list[0].Name)
	assert.Equal(t, 1800, list[0].Plan.Data().CalorieGoal)

	assert.ErrorIs(t, svc.DeleteTemplate(ctx, "clinic-b", "pro", a.ID), ErrTemplateNotFound)
}

func TestOnlyAuthorChangesTemplate(t *testing.T) {
	svc := newLibrary(t)
	ctx := context.Background()

	tpl, err := svc.CreateTemplate(ctx, "default", "pro-1", TemplateRequest{Name: "Base"})
	require.NoError(t, err)

	_, err = svc.UpdateTemplate(ctx, "default", "pro-2", tpl.ID, TemplateRequest{Name: "Mine"})
	assert.ErrorIs(t, err, ErrNotAuthor)
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, "default", "pro-2", tpl.ID), ErrNotAuthor)

	updated, err := svc.UpdateTemplate(ctx, "default", "pro-1", tpl.ID, TemplateRequest{Name: "Base v2"})
	require.NoError(t, err)
	assert.Equal(t, "Base v2", updated.Name)

	// admin deletion skips the author check
	require.NoError(t, svc.DeleteTemplate(ctx, "default", "", tpl.ID))
}

func TestApplyTemplateRecordsHistory(t *testing.T) {
	svc := newLibrary(t)
	ctx := context.Background()

	room := models.Room{TenantID: "default", ProfessionalID: "pro", PatientID: "pat"}
	require.NoError(t, svc.db.Create(&room).Error)

	first, err := svc.CreateTemplate(ctx, "default", "pro", TemplateRequest{Name: "First", Plan: samplePlan})
	require.NoError(t, err)
	second, err := svc.CreateTemplate(ctx, "default", "pro", TemplateRequest{Name: "Second", Plan: models.MealPlan{CalorieGoal: 2200}})
	require.NoError(t, err)

	_, err = svc.ApplyTemplate(ctx, "default", "pro", first.ID, room.ID)
	require.NoError(t, err)
	updated, err := svc.ApplyTemplate(ctx, "default", "pro", second.ID, room.ID)
	require.NoError(t, err)

	assert.Equal(t, 2200, updated.ActivePlan.Data().CalorieGoal)
	require.Len(t, updated.PlanHistory, 1)
	assert.Equal(t, 1800, updated.PlanHistory[0].CalorieGoal)

	_, err = svc.ApplyTemplate(ctx, "default", "pat", first.ID, room.ID)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestGuidelines(t *testing.T) {
	svc := newLibrary(t)
	ctx := context.Background()

	_, err := svc.CreateGuideline(ctx, "default", "pro", GuidelineRequest{Title: "Hydrate"})
	assert.ErrorIs(t, err, ErrTitleRequired)

	g, err := svc.CreateGuideline(ctx, "default", "pro", GuidelineRequest{Title: "Hydrate", Content: "2L a day", Category: " Water "})
	require.NoError(t, err)
	_, err = svc.CreateGuideline(ctx, "default", "pro", GuidelineRequest{Title: "Sleep", Content: "8h", Category: "habits"})
	require.NoError(t, err)

	water, err := svc.ListGuidelines(ctx, "default", "water")
	require.NoError(t, err)
	require.Len(t, water, 1)
	assert.Equal(t, g.ID, water[0].ID)

	all, err := svc.ListGuidelines(ctx, "default", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, svc.DeleteGuideline(ctx, "default", "other", g.ID), ErrNotAuthor)
	require.NoError(t, svc.DeleteGuideline(ctx, "default", "pro", g.ID))
	assert.ErrorIs(t, svc.DeleteGuideline(ctx, "default", "pro", g.ID), ErrGuidelineMissing)
}
