package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/sessions"
	"go.uber.org/zap"
)

// SessionRepository implements sessions.Store on postgres. Sessions are
// infrastructure rather than tenant data: lookups happen before any tenant
// scope exists, so the table is not row-security governed and the tenant id
// is just a column.
type SessionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB, logger *zap.Logger) sessions.Store {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new session record
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, subject_id, tenant_id, email, display_name, created_at, last_accessed_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.SubjectID,
		session.TenantID,
		session.Email,
		session.DisplayName,
		session.CreatedAt,
		session.LastAccessedAt,
		session.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("%w: failed to create session: %v", sessions.ErrStoreUnavailable, err)
	}

	r.logger.Debug("session created",
		zap.String("subject_id", session.SubjectID.String()))
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, subject_id, tenant_id, email, display_name, created_at, last_accessed_at, expires_at
		FROM sessions
		WHERE id = $1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.SubjectID,
		&session.TenantID,
		&session.Email,
		&session.DisplayName,
		&session.CreatedAt,
		&session.LastAccessedAt,
		&session.ExpiresAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sessions.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get session: %v", sessions.ErrStoreUnavailable, err)
	}

	return session, nil
}

// Touch updates the session's last access time and rolling expiry in a
// single statement.
func (r *SessionRepository) Touch(ctx context.Context, id string, lastAccessedAt, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET last_accessed_at = $2,
		    expires_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, lastAccessedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: failed to touch session: %v", sessions.ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", sessions.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return sessions.ErrNotFound
	}

	return nil
}

// Destroy removes a session by ID
func (r *SessionRepository) Destroy(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to destroy session: %v", sessions.ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", sessions.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return sessions.ErrNotFound
	}

	return nil
}

// DeleteExpired removes all sessions that expired before the given time
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete expired sessions: %v", sessions.ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %v", sessions.ErrStoreUnavailable, err)
	}

	return rowsAffected, nil
}
