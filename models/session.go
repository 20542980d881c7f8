package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-held credential record: an identity snapshot keyed by a
// cryptographically random id. Created at login, extended ("touched") on each
// authenticated use, destroyed at logout or by the expiry sweeper.
type Session struct {
	ID             string    `json:"id" db:"id"`
	SubjectID      uuid.UUID `json:"subject_id" db:"subject_id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Email          string    `json:"email" db:"email"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at" db:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Identity builds the request identity from the stored snapshot. Resolving
// the same session twice yields an identical Identity both times.
func (s *Session) Identity() Identity {
	return Identity{
		SubjectID:   s.SubjectID,
		TenantID:    s.TenantID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Method:      AuthMethodSession,
	}
}
