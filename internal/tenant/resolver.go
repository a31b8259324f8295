package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cujumbu/multistore2/internal/domain"
)

var ErrInvalidDomain = errors.New("invalid domain format")

// devAliases are development hosts that bypass the strict hostname check
// and resolve to the configured development store domain.
var devAliases = []string{
	"localhost",
	"webcontainer",
	"stackblitz",
	"local-credentialless",
}

var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{1,61}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

// StoreReader looks up one active store and its settings by domain.
type StoreReader interface {
	GetStoreByDomain(ctx context.Context, storeDomain string) (*domain.Store, *domain.StoreSettings, error)
}

type Tenant struct {
	Store    *domain.Store
	Settings *domain.StoreSettings
}

type cacheEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

// Resolver maps a request host to exactly one active tenant. Lookups are
// cached with a short TTL; singleflight prevents a stampede on a cold key.
type Resolver struct {
	reader    StoreReader
	devDomain string
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	sfg   singleflight.Group
}

func NewResolver(reader StoreReader, devDomain string) *Resolver {
	return &Resolver{
		reader:    reader,
		devDomain: devDomain,
		ttl:       time.Minute,
		cache:     make(map[string]cacheEntry),
	}
}

// Resolve returns the active store and settings for the request host.
// Development aliases map to the configured dev store domain; anything
// else must pass the strict hostname check.
func (r *Resolver) Resolve(ctx context.Context, host string) (*Tenant, error) {
	storeDomain := normalizeHost(host)
	if isDevAlias(storeDomain) {
		storeDomain = r.devDomain
	}
	if !IsValidDomain(storeDomain) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, storeDomain)
	}

	r.mu.RLock()
	entry, ok := r.cache[storeDomain]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.tenant, nil
	}

	v, err, _ := r.sfg.Do(storeDomain, func() (interface{}, error) {
		store, settings, lookupErr := r.reader.GetStoreByDomain(ctx, storeDomain)
		if lookupErr != nil {
			return nil, lookupErr
		}

		tenant := &Tenant{Store: store, Settings: settings}
		r.mu.Lock()
		r.cache[storeDomain] = cacheEntry{tenant: tenant, expiresAt: time.Now().Add(r.ttl)}
		r.mu.Unlock()
		return tenant, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Tenant), nil
}

// Invalidate drops the cached tenant for a domain, for use after settings
// writes.
func (r *Resolver) Invalidate(storeDomain string) {
	r.mu.Lock()
	delete(r.cache, normalizeHost(storeDomain))
	r.mu.Unlock()
}

// IsValidDomain applies the strict hostname-shape check. Development
// aliases are always accepted.
func IsValidDomain(storeDomain string) bool {
	if isDevAlias(storeDomain) {
		return true
	}
	return domainPattern.MatchString(storeDomain)
}

func isDevAlias(storeDomain string) bool {
	for _, alias := range devAliases {
		if strings.Contains(storeDomain, alias) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSpace(host))
}
