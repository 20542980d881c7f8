package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/sessions"
	"github.com/IACMS/IACMS/token"
	"github.com/IACMS/IACMS/utils"
	"go.uber.org/zap"
)

// touchTimeout bounds the background session touch after a response has been
// committed.
const touchTimeout = 5 * time.Second

// SessionResolver resolves and refreshes sessions by ID.
type SessionResolver interface {
	// Resolve returns the live session for the ID.
	Resolve(ctx context.Context, id string) (*models.Session, error)

	// Touch extends the session's rolling expiry.
	Touch(ctx context.Context, id string) error
}

// TokenValidator validates bearer access tokens.
type TokenValidator interface {
	// ValidateAccess validates an access token and returns the identity it
	// asserts.
	ValidateAccess(tokenString string) (models.Identity, error)
}

// PublicMatcher reports whether a request is on the unauthenticated
// allow-list.
type PublicMatcher interface {
	Contains(method, path string) bool
}

// Authenticator resolves the request's credential into an identity. Session
// cookies are consulted before bearer tokens; a request carrying both is
// authenticated by its session. Allow-listed routes skip resolution entirely.
type Authenticator struct {
	sessions SessionResolver
	cookies  *sessions.CookieCodec
	tokens   TokenValidator
	public   PublicMatcher
	logger   *zap.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(
	sessionResolver SessionResolver,
	cookies *sessions.CookieCodec,
	tokens TokenValidator,
	public PublicMatcher,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		sessions: sessionResolver,
		cookies:  cookies,
		tokens:   tokens,
		public:   public,
		logger:   logger,
	}
}

// Authenticate is the credential-resolution middleware. On success the
// identity is stamped into the request context; on failure the request is
// rejected with a machine-readable code and the handler never runs.
func (m *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		if m.public.Contains(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sessionID, err := m.cookies.Read(r)
		if err != nil {
			// A tampered cookie is not the caller's credential; drop it and
			// let the bearer path decide.
			m.logger.Warn("session cookie failed authenticity check",
				zap.String("request_id", requestID),
				zap.Error(err))
			sessionID = ""
		}

		if sessionID != "" {
			session, err := m.sessions.Resolve(ctx, sessionID)
			switch {
			case err == nil:
				m.touchAsync(sessionID, requestID)
				identity := session.Identity()

				m.logger.Debug("session authenticated",
					zap.String("request_id", requestID),
					zap.String("subject_id", identity.SubjectID.String()))

				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, &identity)))
				return
			case errors.Is(err, sessions.ErrNotFound):
				// Missing or expired: fall through to the bearer path.
			default:
				m.logger.Error("session store unreachable",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteCode(w, http.StatusUnauthorized,
					CodeSessionStoreUnavailable, "Session could not be verified", nil)
				return
			}
		}

		if bearer := extractBearerToken(r); bearer != "" {
			identity, err := m.tokens.ValidateAccess(bearer)
			if err != nil {
				code := CodeInvalidToken
				message := "Invalid token"
				if errors.Is(err, token.ErrTokenExpired) {
					code = CodeExpiredToken
					message = "Token expired"
				}
				m.logger.Warn("token validation failed",
					zap.String("request_id", requestID),
					zap.String("code", code),
					zap.Error(err))
				_ = utils.WriteCode(w, http.StatusUnauthorized, code, message, nil)
				return
			}

			m.logger.Debug("token authenticated",
				zap.String("request_id", requestID),
				zap.String("subject_id", identity.SubjectID.String()))

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, &identity)))
			return
		}

		_ = utils.WriteCode(w, http.StatusUnauthorized,
			CodeNoCredential, "Authentication required", nil)
	})
}

// touchAsync refreshes the session's rolling expiry off the request path. The
// response must never wait on the write, and a failed touch only costs one
// refresh window.
func (m *Authenticator) touchAsync(sessionID, requestID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := m.sessions.Touch(ctx, sessionID); err != nil {
			m.logger.Debug("session touch failed",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}()
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
