package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

func TestCompetencyRepositoryListForTrack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "category", "track", "position"}).
		AddRow("ct-1", "Disiplin", "personality", models.TrackAll, 1).
		AddRow("ct-2", "Pemrograman Web", "technical", "RPL", 2)
	mock.ExpectQuery(regexp.QuoteMeta("FROM competency_templates")).
		WithArgs(models.TrackAll, "RPL").
		WillReturnRows(rows)

	templates, err := repo.ListForTrack(context.Background(), "RPL")
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Disiplin", templates[0].Name)
	assert.Equal(t, models.CategoryTechnical, templates[1].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}
