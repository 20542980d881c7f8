package token

import (
	"fmt"
	"time"

	"github.com/IACMS/IACMS/models"
	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Pair is an access/refresh token pair produced at login or by refresh
// exchange. A new pair is always issued whole; tokens are never refreshed in
// place.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issuer signs access/refresh token pairs for authenticated identities.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
}

// NewIssuer creates an Issuer. The clock is injectable so expiry behavior is
// testable without waiting.
func NewIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration, clk clock.Clock) *Issuer {
	if clk == nil {
		clk = clock.New()
	}
	return &Issuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
	}
}

// IssuePair signs a fresh access/refresh pair for the identity.
func (i *Issuer) IssuePair(identity models.Identity) (*Pair, error) {
	now := i.clock.Now()

	access, err := i.sign(identity, UseAccess, now, now.Add(i.accessTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := i.sign(identity, UseRefresh, now, now.Add(i.refreshTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *Issuer) sign(identity models.Identity, use string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   identity.SubjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID: identity.TenantID.String(),
		Email:    identity.Email,
		Name:     identity.DisplayName,
		TokenUse: use,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
