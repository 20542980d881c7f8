package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/permissions"
	"github.com/IACMS/IACMS/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GrantSource resolves the grant set for a subject within a tenant.
type GrantSource interface {
	Grants(ctx context.Context, subjectID, tenantID uuid.UUID) (permissions.GrantSet, error)
}

// Authorizer enforces route permissions and stamps the tenant scope. It runs
// after Authenticate; requests reaching it either carry an identity or
// matched the public allow-list.
type Authorizer struct {
	matcher *permissions.Matcher
	grants  GrantSource
	public  PublicMatcher
	logger  *zap.Logger
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(matcher *permissions.Matcher, grants GrantSource, public PublicMatcher, logger *zap.Logger) *Authorizer {
	return &Authorizer{
		matcher: matcher,
		grants:  grants,
		public:  public,
		logger:  logger,
	}
}

// Authorize is the authorization middleware. A route matching no rule is
// ungated: identity alone admits it, scoped to the identity's tenant. An
// authority outage with a cold cache fails closed with 503.
func (m *Authorizer) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		identity := GetIdentityFromContext(ctx)
		if identity == nil {
			if m.public.Contains(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			// Authenticate stamps every non-public request; a missing
			// identity here means the chain was assembled wrong.
			m.logger.Error("identity missing on gated route",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				CodeNoCredential, "Authentication required", nil)
			return
		}

		rule, gated := m.matcher.Match(r.Method, r.URL.Path)
		if !gated {
			next.ServeHTTP(w, r.WithContext(
				WithTenantScope(ctx, models.ScopedTenant(identity.TenantID))))
			return
		}

		if !rule.PinnedTo(identity.Method) {
			m.logger.Warn("credential mechanism not accepted for route",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path),
				zap.String("method", string(identity.Method)))
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				CodeInvalidAuthMethod, "Credential type not accepted for this route", nil)
			return
		}

		scope := models.ScopedTenant(identity.TenantID)

		if rule.Permission != "" || rule.TenantBypass {
			grants, err := m.grants.Grants(ctx, identity.SubjectID, identity.TenantID)
			if err != nil {
				m.logger.Error("grant resolution failed",
					zap.String("request_id", requestID),
					zap.String("subject_id", identity.SubjectID.String()),
					zap.Error(err))
				_ = utils.WriteCode(w, http.StatusServiceUnavailable,
					CodeAuthorityUnavailable, "Authorization temporarily unavailable", nil)
				return
			}

			if err := permissions.Decide(rule.Permission, grants); err != nil {
				var denied *permissions.DeniedError
				details := map[string]interface{}{}
				if errors.As(err, &denied) {
					details["missing_permission"] = denied.Missing
				}
				m.logger.Warn("permission denied",
					zap.String("request_id", requestID),
					zap.String("subject_id", identity.SubjectID.String()),
					zap.String("required", rule.Permission))
				_ = utils.WriteCode(w, http.StatusForbidden,
					CodePermissionDenied, "Insufficient permissions", details)
				return
			}

			if rule.TenantBypass && grants.Has(permissions.GrantTenantBypass) {
				scope = models.UnscopedTenant()
				m.logger.Warn("tenant scoping lifted",
					zap.String("request_id", requestID),
					zap.String("subject_id", identity.SubjectID.String()),
					zap.String("path", r.URL.Path))
			}
		}

		next.ServeHTTP(w, r.WithContext(WithTenantScope(ctx, scope)))
	})
}
