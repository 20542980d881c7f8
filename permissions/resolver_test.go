package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthority struct {
	grants GrantSet
	err    error
	calls  int
}

func (s *stubAuthority) GrantsFor(ctx context.Context, subjectID, tenantID uuid.UUID) (GrantSet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.grants, nil
}

func TestResolverCachesGrants(t *testing.T) {
	authority := &stubAuthority{grants: NewGrantSet([]string{"cases:read"})}
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	resolver := NewResolver(cache, authority, time.Second, zap.NewNop())

	subjectID := uuid.New()
	tenantID := uuid.New()

	grants, err := resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)
	assert.True(t, grants.Has("cases:read"))
	assert.Equal(t, 1, authority.calls)

	_, err = resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, authority.calls, "second lookup is a cache hit")
}

func TestResolverServesStaleWithinTTL(t *testing.T) {
	authority := &stubAuthority{grants: NewGrantSet([]string{"cases:read", "cases:create"})}
	mockClock := clock.NewMock()
	cache := NewCache(10, 5*time.Minute, mockClock)
	resolver := NewResolver(cache, authority, time.Second, zap.NewNop())

	subjectID := uuid.New()
	tenantID := uuid.New()

	_, err := resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)

	// Revoke upstream. The cached entry keeps serving until TTL expiry.
	authority.grants = NewGrantSet([]string{"cases:read"})
	mockClock.Add(4 * time.Minute)

	grants, err := resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)
	assert.True(t, grants.Has("cases:create"))
	assert.Equal(t, 1, authority.calls)

	mockClock.Add(2 * time.Minute)

	grants, err = resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)
	assert.False(t, grants.Has("cases:create"))
	assert.Equal(t, 2, authority.calls)
}

func TestResolverDoesNotCacheFailures(t *testing.T) {
	authority := &stubAuthority{err: ErrAuthorityUnavailable}
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	resolver := NewResolver(cache, authority, time.Second, zap.NewNop())

	subjectID := uuid.New()
	tenantID := uuid.New()

	_, err := resolver.Grants(context.Background(), subjectID, tenantID)
	assert.ErrorIs(t, err, ErrAuthorityUnavailable)

	authority.err = nil
	authority.grants = NewGrantSet([]string{"cases:read"})

	grants, err := resolver.Grants(context.Background(), subjectID, tenantID)
	require.NoError(t, err)
	assert.True(t, grants.Has("cases:read"))
	assert.Equal(t, 2, authority.calls)
}

func TestResolverKeysByTenant(t *testing.T) {
	authority := &stubAuthority{grants: NewGrantSet([]string{"cases:read"})}
	cache := NewCache(10, 5*time.Minute, clock.NewMock())
	resolver := NewResolver(cache, authority, time.Second, zap.NewNop())

	subjectID := uuid.New()

	_, err := resolver.Grants(context.Background(), subjectID, uuid.New())
	require.NoError(t, err)
	_, err = resolver.Grants(context.Background(), subjectID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, authority.calls, "same subject in different tenants is two entries")
}
