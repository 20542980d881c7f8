package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaseRepository implements the repositories.CaseRepository interface. Every
// operation runs through InTenantScope, so the row level security policy on
// the cases table filters what each statement can see regardless of the SQL
// written here. The tenant predicate lives in the database, not in these
// queries.
type CaseRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *DB, logger *zap.Logger) repositories.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new case. The policy's WITH CHECK clause rejects a row
// whose tenant_id disagrees with the scope.
func (r *CaseRepository) Create(ctx context.Context, scope models.TenantScope, c *models.Case) error {
	query := `
		INSERT INTO cases (id, tenant_id, title, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := InTenantScope(ctx, r.db, scope, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			c.ID,
			c.TenantID,
			c.Title,
			c.Status,
			c.CreatedBy,
			c.CreatedAt,
			c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	r.logger.Debug("case created",
		zap.String("id", c.ID.String()),
		zap.String("tenant_id", c.TenantID.String()))
	return nil
}

// GetByID retrieves a case visible within the scope
func (r *CaseRepository) GetByID(ctx context.Context, scope models.TenantScope, id uuid.UUID) (*models.Case, error) {
	query := `
		SELECT id, tenant_id, title, status, created_by, created_at, updated_at
		FROM cases
		WHERE id = $1
	`

	c := &models.Case{}
	err := InTenantScope(ctx, r.db, scope, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, id).Scan(
			&c.ID,
			&c.TenantID,
			&c.Title,
			&c.Status,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
	})

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	return c, nil
}

// List retrieves the cases visible within the scope, newest first
func (r *CaseRepository) List(ctx context.Context, scope models.TenantScope) ([]*models.Case, error) {
	query := `
		SELECT id, tenant_id, title, status, created_by, created_at, updated_at
		FROM cases
		ORDER BY created_at DESC
	`

	var cases []*models.Case
	err := InTenantScope(ctx, r.db, scope, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c := &models.Case{}
			if err := rows.Scan(
				&c.ID,
				&c.TenantID,
				&c.Title,
				&c.Status,
				&c.CreatedBy,
				&c.CreatedAt,
				&c.UpdatedAt,
			); err != nil {
				return err
			}
			cases = append(cases, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	return cases, nil
}
