package middleware

import (
	"context"

	"github.com/IACMS/IACMS/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// IdentityKey is the context key for the authenticated identity
	IdentityKey contextKey = "identity"

	// TenantScopeKey is the context key for the tenant scope
	TenantScopeKey contextKey = "tenant_scope"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetIdentityFromContext retrieves the authenticated identity from context.
// Returns nil for unauthenticated (allow-listed) requests.
func GetIdentityFromContext(ctx context.Context) *models.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if identity, ok := val.(*models.Identity); ok {
			return identity
		}
	}
	return nil
}

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetTenantScopeFromContext retrieves the tenant scope from context. The
// second return is false when no scope was stamped, which handlers must treat
// as an error rather than defaulting to any tenant.
func GetTenantScopeFromContext(ctx context.Context) (models.TenantScope, bool) {
	if val := ctx.Value(TenantScopeKey); val != nil {
		if scope, ok := val.(models.TenantScope); ok {
			return scope, true
		}
	}
	return models.TenantScope{}, false
}

// WithTenantScope adds the tenant scope to the context
func WithTenantScope(ctx context.Context, scope models.TenantScope) context.Context {
	return context.WithValue(ctx, TenantScopeKey, scope)
}
