package repositories

import (
	"context"
	"errors"

	"github.com/IACMS/IACMS/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist, or is not
// visible within the caller's tenant scope. The two cases are deliberately
// indistinguishable.
var ErrNotFound = errors.New("record not found")

// Repositories bundles all repository instances
type Repositories struct {
	Users UserRepository
	Cases CaseRepository
}

// UserRepository defines operations on user accounts. User lookup happens
// during credential verification, before any tenant scope exists, so these
// operations are not scope-parameterized.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// CaseRepository defines operations on cases. Every operation takes the
// caller's tenant scope explicitly; there is no unscoped variant to reach for
// by accident.
type CaseRepository interface {
	// Create creates a new case inside the scope's tenant
	Create(ctx context.Context, scope models.TenantScope, c *models.Case) error

	// GetByID retrieves a case visible within the scope
	GetByID(ctx context.Context, scope models.TenantScope, id uuid.UUID) (*models.Case, error)

	// List retrieves the cases visible within the scope, newest first
	List(ctx context.Context, scope models.TenantScope) ([]*models.Case, error)
}
