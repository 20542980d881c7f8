package handlers

import (
	"errors"
	"net/http"

	"github.com/IACMS/IACMS/app"
	"github.com/IACMS/IACMS/middleware"
	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/repositories"
	"github.com/IACMS/IACMS/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCaseRequest is the payload for POST /api/v1/cases. The tenant is
// never part of the payload: it always comes from the authenticated identity.
type CreateCaseRequest struct {
	Title string `json:"title" validate:"required,max=500"`
}

// ListCasesHandler lists the cases visible within the caller's tenant scope
func ListCasesHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetTenantScopeFromContext(r.Context())
		if !ok {
			deps.Logger.Error("tenant scope missing on case listing")
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		cases, err := deps.Cases.List(r.Context(), scope)
		if err != nil {
			deps.Logger.Error("case listing failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		if cases == nil {
			cases = []*models.Case{}
		}
		_ = utils.WriteOK(w, cases)
	}
}

// CreateCaseHandler creates a case in the caller's tenant
func CreateCaseHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.GetIdentityFromContext(r.Context())
		scope, ok := middleware.GetTenantScopeFromContext(r.Context())
		if identity == nil || !ok {
			deps.Logger.Error("identity or tenant scope missing on case creation")
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		var req CreateCaseRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		c := models.NewCase(identity.TenantID, req.Title, identity.SubjectID)
		if err := deps.Cases.Create(r.Context(), scope, c); err != nil {
			deps.Logger.Error("case creation failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteCreated(w, c)
	}
}

// GetCaseHandler retrieves one case by id within the caller's tenant scope.
// A case outside the scope is indistinguishable from one that does not exist.
func GetCaseHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetTenantScopeFromContext(r.Context())
		if !ok {
			deps.Logger.Error("tenant scope missing on case retrieval")
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid case id", nil)
			return
		}

		c, err := deps.Cases.GetByID(r.Context(), scope, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				_ = utils.WriteNotFound(w, "Case not found")
				return
			}
			deps.Logger.Error("case retrieval failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, c)
	}
}
