package permissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver combines the grant cache with the external authority: cache hits
// are served without I/O, misses call the authority synchronously and store
// the result under the cache's fixed TTL.
type Resolver struct {
	cache     *Cache
	authority Authority
	timeout   time.Duration
	logger    *zap.Logger
}

// NewResolver creates a Resolver. The timeout bounds the miss-path authority
// call on top of whatever deadline the request context already carries.
func NewResolver(cache *Cache, authority Authority, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		cache:     cache,
		authority: authority,
		timeout:   timeout,
		logger:    logger,
	}
}

// Grants returns the grant set for (subject, tenant). Concurrent misses for
// the same key may each call the authority and overwrite one another, which
// is acceptable because entries are immutable until TTL expiry. Failures
// surface as ErrAuthorityUnavailable-wrapped errors; this resolver never
// substitutes an empty grant set for an outage.
func (r *Resolver) Grants(ctx context.Context, subjectID, tenantID uuid.UUID) (GrantSet, error) {
	key := CacheKey{Subject: subjectID, Tenant: tenantID}
	if grants, ok := r.cache.Get(key); ok {
		return grants, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	grants, err := r.authority.GrantsFor(callCtx, subjectID, tenantID)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, grants)
	return grants, nil
}
