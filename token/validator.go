package token

import (
	"errors"
	"fmt"

	"github.com/IACMS/IACMS/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid is returned for a malformed or badly-signed token.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned for a well-formed token past its expiry.
	// Clients can use the distinction to attempt a refresh instead of
	// re-authenticating outright.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenUse is returned when a refresh token is presented where an
	// access token is expected, or vice versa.
	ErrWrongTokenUse = errors.New("wrong token use")
)

// Token use values carried in the token_use claim.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Claims are the custom claims embedded in issued tokens. The payload is the
// complete identity snapshot: tokens are never stored server-side and their
// validity is a pure function of signature and expiry.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	TokenUse string `json:"token_use"`
}

// Validator performs stateless verification of signed bearer tokens.
// Verification is CPU-bound and never touches storage.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a Validator for tokens signed with the given HMAC
// secret and issuer.
func NewValidator(secret []byte, issuer string) *Validator {
	return &Validator{secret: secret, issuer: issuer}
}

// Validate verifies signature, expiry, issuer and token use, returning the
// embedded claims.
func (v *Validator) Validate(tokenString, expectedUse string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenUse != expectedUse {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenUse, claims.TokenUse, expectedUse)
	}

	return claims, nil
}

// ValidateAccess verifies an access token and returns the identity it
// carries, tagged with the jwt auth method.
func (v *Validator) ValidateAccess(tokenString string) (models.Identity, error) {
	claims, err := v.Validate(tokenString, UseAccess)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity()
}

// ValidateRefresh verifies a refresh token and returns its claims. Refresh
// exchange is not identity-authenticated; the token itself is the credential.
func (v *Validator) ValidateRefresh(tokenString string) (*Claims, error) {
	return v.Validate(tokenString, UseRefresh)
}

// Identity converts validated claims into a request identity.
func (c *Claims) Identity() (models.Identity, error) {
	subject, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: invalid sub claim: %v", ErrTokenInvalid, err)
	}
	tenant, err := uuid.Parse(c.TenantID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: invalid tid claim: %v", ErrTokenInvalid, err)
	}
	return models.Identity{
		SubjectID:   subject,
		TenantID:    tenant,
		Email:       c.Email,
		DisplayName: c.Name,
		Method:      models.AuthMethodJWT,
	}, nil
}
