package handlers

import (
	"net/http"

	"github.com/IACMS/IACMS/app"
	"github.com/IACMS/IACMS/middleware"
	"github.com/IACMS/IACMS/utils"
)

// CurrentUserResponse is the response body for GET /api/v1/users/me
type CurrentUserResponse struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AuthMethod  string `json:"auth_method"`
}

// GetCurrentUserHandler returns the caller's resolved identity. The route is
// identity-gated only, so it answers for any valid credential mechanism.
func GetCurrentUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.GetIdentityFromContext(r.Context())
		if identity == nil {
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				middleware.CodeNoCredential, "Authentication required", nil)
			return
		}

		_ = utils.WriteOK(w, CurrentUserResponse{
			ID:          identity.SubjectID.String(),
			TenantID:    identity.TenantID.String(),
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			AuthMethod:  string(identity.Method),
		})
	}
}
