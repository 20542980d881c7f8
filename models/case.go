package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the lifecycle state of a case
type CaseStatus string

const (
	CaseStatusOpen   CaseStatus = "open"
	CaseStatusClosed CaseStatus = "closed"
)

// Case is a minimal tenant-owned record. Case workflow itself lives outside
// this service; the resource exists here as the downstream consumer of the
// authorization pipeline and the row-level-security tenant scoping.
type Case struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Title     string     `json:"title" db:"title"`
	Status    CaseStatus `json:"status" db:"status"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Case model
func (Case) TableName() string {
	return "cases"
}

// NewCase creates a new open Case owned by the given tenant.
func NewCase(tenantID uuid.UUID, title string, createdBy uuid.UUID) *Case {
	now := time.Now()
	return &Case{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     title,
		Status:    CaseStatusOpen,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
