package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAuthorityUnavailable wraps transport failures, timeouts and non-200
// responses from the permission authority. It is a distinct error class from
// credential failures so outage monitoring can be separated from ordinary
// unauthorized-traffic noise.
var ErrAuthorityUnavailable = errors.New("permission authority unavailable")

// Authority resolves the current grant set for a subject within a tenant.
type Authority interface {
	GrantsFor(ctx context.Context, subjectID, tenantID uuid.UUID) (GrantSet, error)
}

// grantsResponse is the authority's wire format for a user's grants.
type grantsResponse struct {
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// HTTPAuthority calls the external permission authority over HTTP:
// GET /permissions/user/{id} with the tenant as a query parameter. Every
// call carries a bounded timeout via the client; a hang in the authority
// must not hang the request.
type HTTPAuthority struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPAuthority creates an authority client. The timeout bounds every
// call including connection setup and body read.
func NewHTTPAuthority(baseURL string, client *http.Client, logger *zap.Logger) *HTTPAuthority {
	return &HTTPAuthority{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// GrantsFor fetches the subject's grant set from the authority. Any failure
// is wrapped in ErrAuthorityUnavailable; the caller decides the fail-open or
// fail-closed consequence.
func (a *HTTPAuthority) GrantsFor(ctx context.Context, subjectID, tenantID uuid.UUID) (GrantSet, error) {
	url := fmt.Sprintf("%s/permissions/user/%s?tenant_id=%s", a.baseURL, subjectID, tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build authority request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrAuthorityUnavailable, resp.StatusCode)
	}

	var body grantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrAuthorityUnavailable, err)
	}

	a.logger.Debug("authority grants fetched",
		zap.String("subject_id", subjectID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.Int("permission_count", len(body.Permissions)))

	return NewGrantSet(body.Permissions), nil
}
