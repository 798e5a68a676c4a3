package siteconfig

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
)

// Resolver produces fully populated site configurations for tenants. It never
// fails: every error path yields the defaults.
type Resolver struct {
	store OverrideStore
	feed  realtime.Feed
}

func NewResolver(store OverrideStore, feed realtime.Feed) *Resolver {
	return &Resolver{store: store, feed: feed}
}

// Subscribe watches the tenant's override document and calls onChange with
// the resolved configuration on every change, starting with the current one.
func (r *Resolver) Subscribe(ctx context.Context, tenantID string, onChange func(SiteConfig)) realtime.Unsubscribe {
	tenantID = normalizeTenant(tenantID)

	load := func(ctx context.Context) ([]byte, bool, error) {
		return r.store.LoadOverride(ctx, tenantID)
	}
	return realtime.Watch(ctx, r.feed, realtime.SiteConfigTopic(tenantID), load, func(snap realtime.Snapshot[[]byte], err error) {
		if err != nil {
			slog.Error("site config listener failed, using defaults", "tenant_id", tenantID, "error", err)
			onChange(Default())
			return
		}
		onChange(r.fromSnapshot(tenantID, snap))
	})
}

// Resolve returns the current configuration for tenantID.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) SiteConfig {
	tenantID = normalizeTenant(tenantID)
	raw, exists, err := r.store.LoadOverride(ctx, tenantID)
	if err != nil {
		slog.Error("site config fetch failed, using defaults", "tenant_id", tenantID, "error", err)
		return Default()
	}
	return r.fromSnapshot(tenantID, realtime.Snapshot[[]byte]{Value: raw, Exists: exists})
}

func (r *Resolver) fromSnapshot(tenantID string, snap realtime.Snapshot[[]byte]) SiteConfig {
	if !snap.Exists {
		return Default()
	}
	cfg, err := Build(snap.Value)
	if err != nil {
		slog.Warn("tenant site config rejected, using defaults", "tenant_id", tenantID, "error", err)
		return Default()
	}
	return cfg
}

func normalizeTenant(tenantID string) string {
	if tenantID == "" {
		return models.DefaultTenantID
	}
	return tenantID
}
