package tenant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"gorm.io/gorm"
)

// Registry caches the tenants table. Requests consult it for custom domain
// matches and header validation without a query per request.
type Registry struct {
	db *gorm.DB

	mu       sync.RWMutex
	tenants  map[string]*models.Tenant
	byDomain map[string]string
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:       db,
		tenants:  make(map[string]*models.Tenant),
		byDomain: make(map[string]string),
	}
}

// Load builds a registry from the database.
func Load(ctx context.Context, db *gorm.DB) (*Registry, error) {
	r := NewRegistry(db)
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh reloads the active tenants from the database.
func (r *Registry) Refresh(ctx context.Context) error {
	var rows []models.Tenant
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load tenants: %w", err)
	}

	tenants := make(map[string]*models.Tenant, len(rows))
	byDomain := make(map[string]string)
	for i := range rows {
		t := &rows[i]
		tenants[t.ID] = t
		if t.Domain != nil && *t.Domain != "" {
			byDomain[strings.ToLower(*t.Domain)] = t.ID
		}
	}

	r.mu.Lock()
	r.tenants = tenants
	r.byDomain = byDomain
	r.mu.Unlock()
	return nil
}

// Register adds or replaces a tenant in the cache.
func (r *Registry) Register(t *models.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
	if t.Domain != nil && *t.Domain != "" {
		r.byDomain[strings.ToLower(*t.Domain)] = t.ID
	}
}

func (r *Registry) Get(id string) *models.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[id]
}

func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tenants[id]
	return ok
}

// ByDomain returns the tenant that registered host as its custom domain.
func (r *Registry) ByDomain(host string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDomain[strings.ToLower(host)]
	return id, ok
}

func (r *Registry) All() []*models.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*models.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		result = append(result, t)
	}
	return result
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}
