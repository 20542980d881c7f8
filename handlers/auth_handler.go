package handlers

import (
	"errors"
	"net/http"

	"github.com/IACMS/IACMS/app"
	"github.com/IACMS/IACMS/middleware"
	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/repositories"
	"github.com/IACMS/IACMS/token"
	"github.com/IACMS/IACMS/utils"
	"go.uber.org/zap"
)

// LoginRequest is the credential payload for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries both credential mechanisms: the session rides in the
// Set-Cookie header for browsers, the token pair in the body for API clients.
type LoginResponse struct {
	User   UserResponse `json:"user"`
	Tokens *token.Pair  `json:"tokens"`
}

// UserResponse is the public shape of an authenticated user
type UserResponse struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func userResponse(identity models.Identity) UserResponse {
	return UserResponse{
		ID:          identity.SubjectID.String(),
		TenantID:    identity.TenantID.String(),
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
}

// LoginHandler verifies credentials and establishes both a session and a
// token pair. Unknown email and wrong password produce the same response, so
// the endpoint cannot be used to probe which accounts exist.
func LoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := deps.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				deps.Logger.Error("user lookup failed", zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				"invalid_credentials", "Invalid email or password", nil)
			return
		}

		if !user.VerifyPassword(req.Password) {
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				"invalid_credentials", "Invalid email or password", nil)
			return
		}

		session, err := deps.Sessions.Create(r.Context(), user.Identity(models.AuthMethodSession))
		if err != nil {
			deps.Logger.Error("session creation failed", zap.Error(err))
			_ = utils.WriteCode(w, http.StatusServiceUnavailable,
				middleware.CodeSessionStoreUnavailable, "Login temporarily unavailable", nil)
			return
		}

		if err := deps.Cookies.Write(w, session.ID); err != nil {
			deps.Logger.Error("session cookie write failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		pair, err := deps.TokenIssuer.IssuePair(user.Identity(models.AuthMethodJWT))
		if err != nil {
			deps.Logger.Error("token issuance failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		deps.Logger.Info("login succeeded",
			zap.String("subject_id", user.ID.String()),
			zap.String("tenant_id", user.TenantID.String()))

		_ = utils.WriteOK(w, LoginResponse{
			User:   userResponse(user.Identity(models.AuthMethodSession)),
			Tokens: pair,
		})
	}
}

// LogoutHandler destroys the caller's session and expires the cookie. The
// route is pinned to session credentials; a bearer token cannot log a browser
// out.
func LogoutHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := deps.Cookies.Read(r)
		if err != nil || sessionID == "" {
			deps.Cookies.Clear(w)
			utils.WriteNoContent(w)
			return
		}

		if err := deps.Sessions.Destroy(r.Context(), sessionID); err != nil {
			deps.Logger.Error("session destroy failed", zap.Error(err))
			_ = utils.WriteCode(w, http.StatusServiceUnavailable,
				middleware.CodeSessionStoreUnavailable, "Logout temporarily unavailable", nil)
			return
		}

		deps.Cookies.Clear(w)
		utils.WriteNoContent(w)
	}
}

// RefreshRequest is the payload for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler exchanges a valid refresh token for a fresh pair. An access
// token is never accepted here; the token-use claim keeps the two roles
// apart.
func RefreshHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		claims, err := deps.TokenValidator.ValidateRefresh(req.RefreshToken)
		if err != nil {
			code := middleware.CodeInvalidToken
			message := "Invalid refresh token"
			if errors.Is(err, token.ErrTokenExpired) {
				code = middleware.CodeExpiredToken
				message = "Refresh token expired"
			}
			_ = utils.WriteCode(w, http.StatusUnauthorized, code, message, nil)
			return
		}

		identity, err := claims.Identity()
		if err != nil {
			_ = utils.WriteCode(w, http.StatusUnauthorized,
				middleware.CodeInvalidToken, "Invalid refresh token", nil)
			return
		}

		pair, err := deps.TokenIssuer.IssuePair(identity)
		if err != nil {
			deps.Logger.Error("token issuance failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, pair)
	}
}
