package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func caseFixture(tenantID uuid.UUID) *models.Case {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Case{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     "Damaged shipment",
		Status:    models.CaseStatusOpen,
		CreatedBy: uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func caseRows(c *models.Case) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "title", "status", "created_by", "created_at", "updated_at",
	}).AddRow(c.ID, c.TenantID, c.Title, c.Status, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
}

func TestCaseRepositoryCreateScoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	tenantID := uuid.New()
	c := caseFixture(tenantID)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config\\('app.tenant_id'").
		WithArgs(tenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cases").
		WithArgs(c.ID, c.TenantID, c.Title, c.Status, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), models.ScopedTenant(tenantID), c)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryGetByIDScoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	tenantID := uuid.New()
	c := caseFixture(tenantID)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config\\('app.tenant_id'").
		WithArgs(tenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM cases").
		WithArgs(c.ID).
		WillReturnRows(caseRows(c))
	mock.ExpectCommit()

	got, err := repo.GetByID(context.Background(), models.ScopedTenant(tenantID), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryGetByIDNotVisible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	tenantID := uuid.New()
	caseID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config\\('app.tenant_id'").
		WithArgs(tenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM cases").
		WithArgs(caseID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.GetByID(context.Background(), models.ScopedTenant(tenantID), caseID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryListScoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	tenantID := uuid.New()
	c := caseFixture(tenantID)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config\\('app.tenant_id'").
		WithArgs(tenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM cases").
		WillReturnRows(caseRows(c))
	mock.ExpectCommit()

	cases, err := repo.List(context.Background(), models.ScopedTenant(tenantID))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, c.ID, cases[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryListUnscoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	c := caseFixture(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL row_security = off").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM cases").
		WillReturnRows(caseRows(c))
	mock.ExpectCommit()

	cases, err := repo.List(context.Background(), models.UnscopedTenant())
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryScopeSetFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db, zap.NewNop())

	tenantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config\\('app.tenant_id'").
		WithArgs(tenantID.String()).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.List(context.Background(), models.ScopedTenant(tenantID))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
