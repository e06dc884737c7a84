package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestFinalReportRepositoryCreateConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO final_reports")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.FinalReport{PlacementID: "pl-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestFinalReportRepositoryReplaceScores(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM final_reports WHERE id = $1 FOR UPDATE")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("DRAFTING"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM final_report_scores WHERE final_report_id = $1")).
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO final_report_scores")).
		WithArgs(sqlmock.AnyArg(), "rep-1", "ct-1", 85.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO final_report_scores")).
		WithArgs(sqlmock.AnyArg(), "rep-1", "ct-2", 90.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_reports SET total_score = $1, average_score = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(175.0, 87.5, sqlmock.AnyArg(), "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceScores(context.Background(), "rep-1", []models.ScoreInput{
		{CompetencyTemplateID: "ct-1", Score: 85},
		{CompetencyTemplateID: "ct-2", Score: 90},
	}, 175, 87.5)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalReportRepositoryReplaceScoresIssuedLocked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM final_reports WHERE id = $1 FOR UPDATE")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("ISSUED"))
	mock.ExpectRollback()

	err := repo.ReplaceScores(context.Background(), "rep-1", nil, 0, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReportIssued.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalReportRepositoryNextSequence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(cert_sequence), 0) + 1 FROM final_reports")).
		WithArgs("ACME", 5, 2025, "ISSUED").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))

	next, err := repo.NextSequence(context.Background(), "ACME", 5, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestFinalReportRepositoryIssueCertificate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IssueCertificate(context.Background(), "rep-1", IssueCertificateParams{
		Predicate:   models.PredicateGood,
		CompanyCode: "ACME",
		Sequence:    4,
		Month:       5,
		Year:        2025,
		Number:      "004/ACME/PKL/5/2025",
	})
	require.NoError(t, err)
}

func TestFinalReportRepositoryIssueCertificateNumberTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_reports SET")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.IssueCertificate(context.Background(), "rep-1", IssueCertificateParams{Number: "004/ACME/PKL/5/2025"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCertificateNumberTaken.Code, appErrors.FromError(err).Code)
}

func TestFinalReportRepositoryIssueCertificateAlreadyIssued(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IssueCertificate(context.Background(), "rep-1", IssueCertificateParams{Number: "004/ACME/PKL/5/2025"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReportIssued.Code, appErrors.FromError(err).Code)
}

func TestFinalReportRepositoryFindByPlacementNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM final_reports WHERE placement_id = $1")).
		WithArgs("pl-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPlacement(context.Background(), "pl-1")
	assert.Equal(t, sql.ErrNoRows, err)
}
