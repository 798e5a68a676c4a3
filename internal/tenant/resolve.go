package tenant

import (
	"net"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
)

// Identity is what tenant resolution knows about the current visitor.
type Identity struct {
	// Loading is set while the session layer has not decided whether a
	// profile exists yet.
	Loading bool
	// ProfileTenantID is the tenant of the signed-in user's profile; only
	// read when HasProfile is set.
	ProfileTenantID string
	HasProfile      bool
	Host            string
}

// DomainLookup maps a custom domain to a tenant.
type DomainLookup interface {
	ByDomain(host string) (string, bool)
}

// Resolver decides which tenant's branding a visitor gets.
type Resolver struct {
	platformDomains []string
	domains         DomainLookup
}

// NewResolver creates a resolver. Hosts equal to or under any of
// platformDomains never yield a subdomain tenant. domains may be nil.
func NewResolver(platformDomains []string, domains DomainLookup) *Resolver {
	normalized := make([]string, 0, len(platformDomains))
	for _, d := range platformDomains {
		d = strings.ToLower(strings.Trim(strings.TrimSpace(d), "."))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Resolver{platformDomains: normalized, domains: domains}
}

// Resolve returns the tenant id for id. resolved is false while the session
// is still loading; callers keep whatever they had until then.
func (r *Resolver) Resolve(id Identity) (tenantID string, resolved bool) {
	if id.Loading {
		return "", false
	}
	if id.HasProfile {
		if id.ProfileTenantID == "" {
			return models.DefaultTenantID, true
		}
		return id.ProfileTenantID, true
	}
	return r.FromHost(id.Host), true
}

// FromHost resolves an anonymous visitor by hostname.
func (r *Resolver) FromHost(host string) string {
	host = normalizeHost(host)
	if host == "" {
		return models.DefaultTenantID
	}

	if r.domains != nil {
		if id, ok := r.domains.ByDomain(host); ok {
			return id
		}
	}

	if r.isPlatformHost(host) || net.ParseIP(host) != nil {
		return models.DefaultTenantID
	}

	labels := strings.Split(host, ".")
	if len(labels) > 2 && labels[0] != "www" && labels[0] != "" {
		return labels[0]
	}
	return models.DefaultTenantID
}

func (r *Resolver) isPlatformHost(host string) bool {
	for _, d := range r.platformDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
