package permissions

import (
	"fmt"
	"strings"
)

// Well-known grant strings.
const (
	// Superuser satisfies any required permission. It is an explicit grant,
	// never inferred from a role name.
	Superuser = "*:*"

	// GrantTenantBypass is the explicit grant required (together with a
	// per-route flag) to lift tenant scoping. Holding Superuser does not
	// imply it.
	GrantTenantBypass = "tenants:unscoped"
)

// GrantSet is the complete set of "resource:action" permission strings one
// subject holds within one tenant.
type GrantSet map[string]struct{}

// NewGrantSet builds a GrantSet from a permission list.
func NewGrantSet(permissions []string) GrantSet {
	set := make(GrantSet, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the exact grant string is present.
func (g GrantSet) Has(permission string) bool {
	_, ok := g[permission]
	return ok
}

// Strings returns the grants as a list, for logging and responses.
func (g GrantSet) Strings() []string {
	out := make([]string, 0, len(g))
	for p := range g {
		out = append(out, p)
	}
	return out
}

// DeniedError is a terminal authorization failure naming the specific missing
// permission, so operators can diagnose role misconfiguration instead of
// receiving an opaque 403.
type DeniedError struct {
	Missing string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("missing permission %q", e.Missing)
}

// Decide is the pure authorization decision: no requirement allows, and a
// requirement is satisfied by an exact grant, a same-resource wildcard
// ("resource:*"), or the superuser marker. Anything else denies with the
// missing permission named.
func Decide(required string, grants GrantSet) error {
	if required == "" {
		return nil
	}
	if grants.Has(required) || grants.Has(Superuser) {
		return nil
	}
	if resource, _, ok := strings.Cut(required, ":"); ok && grants.Has(resource+":*") {
		return nil
	}
	return &DeniedError{Missing: required}
}
