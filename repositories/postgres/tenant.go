package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IACMS/IACMS/models"
	"go.uber.org/zap"
)

// Executor is an interface that can execute queries (both *sql.DB and *sql.Tx)
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// InTenantScope runs fn inside a transaction whose row level security context
// matches the scope. For a scoped call the tenant id is bound to
// app.tenant_id for the transaction's duration, so the cases policy filters
// every statement fn issues. For an unscoped call row security is disabled
// with SET LOCAL; both settings die with the transaction, so a pooled
// connection never leaks one request's scope into the next.
func InTenantScope(ctx context.Context, db *DB, scope models.TenantScope, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if tenantID, scoped := scope.TenantID(); scoped {
		if _, err := tx.ExecContext(ctx,
			"SELECT set_config('app.tenant_id', $1, true)", tenantID.String()); err != nil {
			rollback(tx, db.logger)
			return fmt.Errorf("failed to set tenant scope: %w", err)
		}
	} else {
		db.logger.Warn("executing storage operation without tenant scoping")
		if _, err := tx.ExecContext(ctx, "SET LOCAL row_security = off"); err != nil {
			rollback(tx, db.logger)
			return fmt.Errorf("failed to disable row security: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		rollback(tx, db.logger)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func rollback(tx *sql.Tx, logger *zap.Logger) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logger.Error("failed to rollback transaction", zap.Error(err))
	}
}
