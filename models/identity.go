package models

import "github.com/google/uuid"

// AuthMethod identifies which credential mechanism produced an Identity.
type AuthMethod string

const (
	// AuthMethodSession marks identities resolved from a server-held session.
	AuthMethodSession AuthMethod = "session"
	// AuthMethodJWT marks identities resolved from a stateless bearer token.
	AuthMethodJWT AuthMethod = "jwt"
)

// Identity is the authenticated caller for one request. It is produced fresh
// per request by exactly one credential path and is immutable for that
// request's lifetime. Collaborators trust these fields without
// re-authenticating; they are trust-boundary metadata, not user input.
type Identity struct {
	SubjectID   uuid.UUID  `json:"subject_id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Method      AuthMethod `json:"auth_method"`
}
