package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

func TestWizardSnapshotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWizardSnapshotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wizard_snapshots")).
		WithArgs(sqlmock.AnyArg(), "pl-1", "rep-1", 3,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	reportID := "rep-1"
	snapshot := &models.WizardSnapshot{
		PlacementID:   "pl-1",
		FinalReportID: &reportID,
		CurrentStep:   3,
		Form:          models.FormFields{CompanyName: "Acme Corp"},
		Provenance:    models.FieldProvenance{"companyName": models.SourceDerived},
	}
	err := repo.Upsert(context.Background(), snapshot)
	require.NoError(t, err)
	assert.NotEmpty(t, snapshot.ID)
	assert.False(t, snapshot.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWizardSnapshotRepositoryFindByPlacementNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWizardSnapshotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wizard_snapshots WHERE placement_id = $1")).
		WithArgs("pl-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPlacement(context.Background(), "pl-1")
	assert.Equal(t, sql.ErrNoRows, err)
}
