package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type mockReportReader struct {
	reports    map[string]*models.FinalReport
	scores     map[string][]models.ScoredCompetency
	listRows   []models.FinalReportListRow
	listTotal  int
	lastFilter models.FinalReportFilter
}

func (m *mockReportReader) FindByID(ctx context.Context, id string) (*models.FinalReport, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportReader) ListScores(ctx context.Context, reportID string) ([]models.ScoredCompetency, error) {
	return m.scores[reportID], nil
}

func (m *mockReportReader) List(ctx context.Context, filter models.FinalReportFilter) ([]models.FinalReportListRow, int, error) {
	m.lastFilter = filter
	return m.listRows, m.listTotal, nil
}

func TestReportServiceListScopesMentor(t *testing.T) {
	reader := &mockReportReader{
		listRows: []models.FinalReportListRow{
			{ID: "rep-1", StudentName: "Siti", TotalScore: 253, ScoreCount: 3},
		},
		listTotal: 1,
	}
	svc := NewReportService(reader, &mockPlacementReader{}, zap.NewNop())

	actor := &models.JWTClaims{UserID: "user-1", Role: models.RoleMentor}
	rows, pagination, err := svc.List(context.Background(), models.FinalReportFilter{Page: 1, PageSize: 10}, actor)
	require.NoError(t, err)
	assert.Equal(t, "user-1", reader.lastFilter.MentorUserID)
	require.Len(t, rows, 1)
	assert.Equal(t, 84.33, rows[0].AverageScore)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestReportServiceListAdminUnscoped(t *testing.T) {
	reader := &mockReportReader{}
	svc := NewReportService(reader, &mockPlacementReader{}, zap.NewNop())

	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, _, err := svc.List(context.Background(), models.FinalReportFilter{}, actor)
	require.NoError(t, err)
	assert.Empty(t, reader.lastFilter.MentorUserID)
}

func TestReportServiceDetailGroupsScores(t *testing.T) {
	detail := activeDetail("pl-1", "user-1")
	detail.StudentName = ptrString("Siti Rahma")
	detail.StudentNIS = ptrString("21001")
	reader := &mockReportReader{
		reports: map[string]*models.FinalReport{
			"rep-1": {ID: "rep-1", PlacementID: "pl-1", State: models.ReportDrafting},
		},
		scores: map[string][]models.ScoredCompetency{
			"rep-1": {
				{CompetencyTemplateID: "ct-1", Name: "Disiplin", Category: models.CategoryPersonality, Score: 90},
				{CompetencyTemplateID: "ct-2", Name: "Kerjasama", Category: models.CategoryPersonality, Score: 85},
				{CompetencyTemplateID: "ct-3", Name: "Pemrograman Web", Category: models.CategoryTechnical, Score: 88},
			},
		},
	}
	placements := &mockPlacementReader{details: map[string]*models.PlacementDetail{"pl-1": detail}}
	svc := NewReportService(reader, placements, zap.NewNop())

	result, err := svc.Detail(context.Background(), "rep-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Siti Rahma", result.Student.Name)
	assert.Equal(t, "21001", result.Student.NIS)
	require.Len(t, result.Scores.Personality, 2)
	require.Len(t, result.Scores.Technical, 1)
	assert.Equal(t, 263.0, result.TotalScore)
	assert.Equal(t, 87.67, result.AverageScore)
}

func TestReportServiceDetailNotFound(t *testing.T) {
	svc := NewReportService(&mockReportReader{}, &mockPlacementReader{}, zap.NewNop())

	_, err := svc.Detail(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceDetailMentorScope(t *testing.T) {
	reader := &mockReportReader{
		reports: map[string]*models.FinalReport{
			"rep-1": {ID: "rep-1", PlacementID: "pl-1", State: models.ReportDrafting},
		},
	}
	placements := &mockPlacementReader{details: map[string]*models.PlacementDetail{"pl-1": activeDetail("pl-1", "user-1")}}
	svc := NewReportService(reader, placements, zap.NewNop())

	actor := &models.JWTClaims{UserID: "other-user", Role: models.RoleMentor}
	_, err := svc.Detail(context.Background(), "rep-1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
