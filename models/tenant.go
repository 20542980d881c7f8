package models

import "github.com/google/uuid"

// TenantScope is the single authoritative tenant binding for one operation.
// It is a tagged variant rather than a nullable tenant field: a scope is
// either bound to exactly one tenant or explicitly unscoped, so every call
// site has to handle the bypass case instead of silently accepting a zero
// value. Only the authorization layer constructs unscoped values.
type TenantScope struct {
	tenantID uuid.UUID
	unscoped bool
}

// ScopedTenant returns a scope bound to one tenant.
func ScopedTenant(tenantID uuid.UUID) TenantScope {
	return TenantScope{tenantID: tenantID}
}

// UnscopedTenant returns the super-admin bypass scope. Callers must treat
// this as a privileged, logged path.
func UnscopedTenant() TenantScope {
	return TenantScope{unscoped: true}
}

// TenantID returns the bound tenant and true, or the zero UUID and false for
// an unscoped value.
func (s TenantScope) TenantID() (uuid.UUID, bool) {
	if s.unscoped {
		return uuid.Nil, false
	}
	return s.tenantID, true
}

// Unscoped reports whether tenant row filtering is bypassed.
func (s TenantScope) Unscoped() bool {
	return s.unscoped
}

// String is used for logging only.
func (s TenantScope) String() string {
	if s.unscoped {
		return "unscoped"
	}
	return s.tenantID.String()
}
