package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.FeaturesSection.Items[0].Title = "changed"
	assert.NotEqual(t, "changed", Default().FeaturesSection.Items[0].Title)
}

func TestBuildMergesSectionFieldByField(t *testing.T) {
	cfg, err := Build([]byte(`{"hero_section": {"title": "Clinic X"}}`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "Clinic X", cfg.HeroSection.Title)
	assert.Equal(t, def.HeroSection.Subtitle, cfg.HeroSection.Subtitle)
	assert.Equal(t, def.HeroSection.CTA, cfg.HeroSection.CTA)
	assert.Equal(t, def.HeroSection.ImageURL, cfg.HeroSection.ImageURL)
	assert.Equal(t, def.SiteName, cfg.SiteName)
	assert.Equal(t, def.FeaturesSection, cfg.FeaturesSection)
}

func TestBuildOverridesScalarsAndNestedFields(t *testing.T) {
	cfg, err := Build([]byte(`{
		"site_name": "Clinic X",
		"logo": {"type": "image", "image_url": "https://cdn.example.com/logo.png"},
		"theme": {"primary_color": "blue"},
		"features_section": {"items": [{"icon": "heart", "title": "Care", "description": "We care"}]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Clinic X", cfg.SiteName)
	assert.Equal(t, LogoImage, cfg.Logo.Type)
	assert.Equal(t, "https://cdn.example.com/logo.png", cfg.Logo.ImageURL)
	assert.Equal(t, ColorBlue, cfg.Theme.PrimaryColor)
	assert.Equal(t, FontSizeLarge, cfg.Theme.TitleFontSize)
	require.Len(t, cfg.FeaturesSection.Items, 1)
	assert.Equal(t, IconHeart, cfg.FeaturesSection.Items[0].Icon)
	assert.Equal(t, Default().FeaturesSection.Title, cfg.FeaturesSection.Title)
}

func TestBuildAlwaysYieldsValidConfig(t *testing.T) {
	cases := map[string]string{
		"nil":                    "",
		"null":                   "null",
		"empty object":           "{}",
		"not json":               "{{{",
		"wrong type":             `{"site_name": 42}`,
		"bad url":                `{"hero_section": {"image_url": "not a url"}}`,
		"unknown color":          `{"theme": {"primary_color": "chartreuse"}}`,
		"unknown icon":           `{"features_section": {"items": [{"icon": "rocket", "title": "t", "description": "d"}]}}`,
		"image logo without url": `{"logo": {"type": "image", "image_url": ""}, "site_name": "X"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, _ := Build([]byte(raw))
			assert.NoError(t, Validate(cfg))
			assert.NotEmpty(t, cfg.SiteName)

			out, err := json.Marshal(cfg)
			require.NoError(t, err)
			assert.NotContains(t, string(out), "null")
		})
	}
}

func TestBuildKeepsListsPopulated(t *testing.T) {
	cfg, err := Build([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Build([]byte(`{"site_name": "Clinic"}`))
	require.NoError(t, err)
	assert.Equal(t, "Clinic", cfg.SiteName)
	assert.NotNil(t, cfg.ProfessionalProfileSection.Credentials)
	assert.NotNil(t, cfg.TestimonialsSection.Items)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"credentials":[]`)
	assert.NotContains(t, string(out), `"items":null`)
}

func TestBuildRejectsInvalidOverride(t *testing.T) {
	cfg, err := Build([]byte(`{"site_name": "Clinic X", "theme": {"primary_color": "chartreuse"}}`))
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

type fakeStore struct {
	mu     sync.Mutex
	raw    []byte
	exists bool
	err    error
}

func (s *fakeStore) set(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.exists = []byte(raw), true
}

func (s *fakeStore) LoadOverride(context.Context, string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.exists, s.err
}

type configRecorder struct {
	mu   sync.Mutex
	cfgs []SiteConfig
}

func (r *configRecorder) add(cfg SiteConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfgs = append(r.cfgs, cfg)
}

func (r *configRecorder) snapshot() []SiteConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SiteConfig(nil), r.cfgs...)
}

func TestResolverSubscribeFollowsChanges(t *testing.T) {
	store := &fakeStore{}
	feed := realtime.NewLocalFeed()
	resolver := NewResolver(store, feed)

	rec := &configRecorder{}
	unsub := resolver.Subscribe(context.Background(), "clinic-x", rec.add)
	defer unsub()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Default(), rec.snapshot()[0])

	store.set(`{"site_name": "Clinic X"}`)
	feed.Publish(context.Background(), realtime.SiteConfigTopic("clinic-x"))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Clinic X", rec.snapshot()[1].SiteName)

	store.set(`{"site_name": "Clinic X", "hero_section": {"image_url": "nope"}}`)
	feed.Publish(context.Background(), realtime.SiteConfigTopic("clinic-x"))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Default(), rec.snapshot()[2])
}

func TestResolverSubscribeDefaultsOnListenerError(t *testing.T) {
	store := &fakeStore{err: errors.New("permission denied")}
	resolver := NewResolver(store, realtime.NewLocalFeed())

	rec := &configRecorder{}
	unsub := resolver.Subscribe(context.Background(), "", rec.add)
	defer unsub()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Default(), rec.snapshot()[0])
}

func TestGormStoreRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	_, exists, err := store.LoadOverride(ctx, "clinic-x")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.SaveOverride(ctx, "clinic-x", []byte(`{"site_name":"A"}`), "admin"))
	require.NoError(t, store.SaveOverride(ctx, "clinic-x", []byte(`{"site_name":"B"}`), "admin"))

	resolver := NewResolver(store, realtime.NewLocalFeed())
	assert.Equal(t, "B", resolver.Resolve(ctx, "clinic-x").SiteName)

	deleted, err := store.DeleteOverride(ctx, "clinic-x")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, Default(), resolver.Resolve(ctx, "clinic-x"))
}
