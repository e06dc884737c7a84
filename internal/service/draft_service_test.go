package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	"github.com/noah-isme/sikap-pkl-api/pkg/config"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type mockCatalogLister struct {
	catalog *models.CompetencyCatalog
}

func (m *mockCatalogLister) ListFor(ctx context.Context, track string) (*models.CompetencyCatalog, error) {
	return m.catalog, nil
}

type mockTaskScoreReader struct {
	sums map[string]float64
}

func (m *mockTaskScoreReader) SumApprovedByStudent(ctx context.Context, studentID string) (map[string]float64, error) {
	return m.sums, nil
}

type mockPreviewer struct {
	preview models.CertificatePreview
}

func (m *mockPreviewer) Preview(ctx context.Context, companyCode string) (models.CertificatePreview, error) {
	m.preview.CompanyCode = companyCode
	return m.preview, nil
}

func draftDefaults() config.CertificateConfig {
	return config.CertificateConfig{
		DefaultSignerRole:   "Pembimbing",
		DefaultPlace:        "Tasikmalaya",
		DefaultAcademicYear: "2024/2025",
		DefaultField:        "Teknologi Informasi",
		DefaultStudentGrade: "XII (Dua Belas)",
	}
}

func newDraftFixture(snapshots *mockSnapshotStore) (*DraftService, *mockPlacementReader) {
	detail := activeDetail("pl-1", "user-1")
	detail.CompanyName = ptrString("Acme Corp")
	detail.StudentName = ptrString("Siti Rahma")
	detail.StudentNIS = ptrString("21001")
	detail.StudentMajor = ptrString("RPL")
	detail.StudentSchool = ptrString("SMKN 1")
	detail.MentorName = ptrString("Budi Santoso")
	detail.CompanyShortCode = ptrString("ACME")
	placements := &mockPlacementReader{details: map[string]*models.PlacementDetail{"pl-1": detail}}

	catalog := &mockCatalogLister{catalog: &models.CompetencyCatalog{
		Track: "RPL",
		Personality: []models.CompetencyTemplate{
			{ID: "ct-1", Name: "Disiplin", Category: models.CategoryPersonality},
		},
		Technical: []models.CompetencyTemplate{
			{ID: "ct-2", Name: "Pemrograman Web", Category: models.CategoryTechnical},
		},
	}}
	taskScores := &mockTaskScoreReader{sums: map[string]float64{"ct-2": 82.5}}
	previewer := &mockPreviewer{preview: models.CertificatePreview{NextSequenceNumber: 4, Number: "004/ACME/PKL/5/2025"}}

	svc := NewDraftService(placements, &mockReportStore{}, snapshots, catalog, taskScores, previewer, draftDefaults(), zap.NewNop())
	return svc, placements
}

func TestComposeDraftRelationsAndDefaults(t *testing.T) {
	svc, _ := newDraftFixture(&mockSnapshotStore{})

	view, err := svc.ComposeDraft(context.Background(), "pl-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", view.Form.CompanyName)
	assert.Equal(t, "Siti Rahma", view.Form.StudentName)
	assert.Equal(t, "21001", view.Form.StudentNIS)
	assert.Equal(t, "SMKN 1", view.Form.SchoolName)
	assert.Equal(t, "RPL", view.Form.StudentMajor)
	// defaults fill what no relation provides
	assert.Equal(t, "XII (Dua Belas)", view.Form.StudentGrade)
	assert.Equal(t, "2024/2025", view.Form.AcademicYear)
	assert.Equal(t, "Teknologi Informasi", view.Form.BidangKeahlian)
	assert.Equal(t, "Tasikmalaya", view.Form.Place)

	assert.Equal(t, 1, view.CurrentStep)
	assert.Nil(t, view.ReportID)
	assert.Equal(t, "004/ACME/PKL/5/2025", view.CertificatePreview.Number)
}

func TestComposeDraftManualSnapshotWins(t *testing.T) {
	snapshots := &mockSnapshotStore{snapshots: map[string]*models.WizardSnapshot{
		"pl-1": {
			ID:          "snap-1",
			PlacementID: "pl-1",
			CurrentStep: 4,
			Form:        models.FormFields{CompanyName: "Acme Corp Tasik"},
			Provenance:  models.FieldProvenance{"companyName": models.SourceManual},
		},
	}}
	svc, _ := newDraftFixture(snapshots)

	view, err := svc.ComposeDraft(context.Background(), "pl-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp Tasik", view.Form.CompanyName)
	assert.Equal(t, 4, view.CurrentStep)
}

func TestComposeDraftDerivedSnapshotRefreshedFromRelation(t *testing.T) {
	snapshots := &mockSnapshotStore{snapshots: map[string]*models.WizardSnapshot{
		"pl-1": {
			ID:          "snap-1",
			PlacementID: "pl-1",
			CurrentStep: 2,
			Form:        models.FormFields{CompanyName: "Stale Company"},
			Provenance:  models.FieldProvenance{"companyName": models.SourceDerived},
		},
	}}
	svc, _ := newDraftFixture(snapshots)

	view, err := svc.ComposeDraft(context.Background(), "pl-1", nil)
	require.NoError(t, err)
	// derived values track the relation, not the stale copy
	assert.Equal(t, "Acme Corp", view.Form.CompanyName)
}

func TestComposeDraftScorePrecedence(t *testing.T) {
	snapshots := &mockSnapshotStore{snapshots: map[string]*models.WizardSnapshot{
		"pl-1": {
			ID:          "snap-1",
			PlacementID: "pl-1",
			CurrentStep: 3,
			Scores:      models.ScoreInputs{{CompetencyTemplateID: "ct-1", Score: 91}},
		},
	}}
	svc, _ := newDraftFixture(snapshots)

	view, err := svc.ComposeDraft(context.Background(), "pl-1", nil)
	require.NoError(t, err)
	require.Len(t, view.Scores, 2)

	byTemplate := map[string]float64{}
	for _, row := range view.Scores {
		byTemplate[row.CompetencyTemplateID] = row.Score
	}
	assert.Equal(t, 91.0, byTemplate["ct-1"], "saved wizard score wins")
	assert.Equal(t, 82.5, byTemplate["ct-2"], "approved task sum pre-fills the rest")
}

func TestComposeDraftMissingPlacement(t *testing.T) {
	svc := NewDraftService(&mockPlacementReader{}, &mockReportStore{}, &mockSnapshotStore{}, &mockCatalogLister{}, &mockTaskScoreReader{}, &mockPreviewer{}, draftDefaults(), zap.NewNop())

	_, err := svc.ComposeDraft(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestComposeDraftMentorScope(t *testing.T) {
	svc, _ := newDraftFixture(&mockSnapshotStore{})

	actor := &models.JWTClaims{UserID: "other-user", Role: models.RoleMentor}
	_, err := svc.ComposeDraft(context.Background(), "pl-1", actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestComposeDraftExistingReportLinked(t *testing.T) {
	detail := activeDetail("pl-1", "user-1")
	detail.CompanyShortCode = ptrString("ACME")
	placements := &mockPlacementReader{details: map[string]*models.PlacementDetail{"pl-1": detail}}
	reports := &mockReportStore{reports: map[string]*models.FinalReport{
		"rep-1": {ID: "rep-1", PlacementID: "pl-1", State: models.ReportDrafting},
	}}
	svc := NewDraftService(placements, reports, &mockSnapshotStore{}, &mockCatalogLister{catalog: &models.CompetencyCatalog{}}, &mockTaskScoreReader{}, &mockPreviewer{}, draftDefaults(), zap.NewNop())

	view, err := svc.ComposeDraft(context.Background(), "pl-1", nil)
	require.NoError(t, err)
	require.NotNil(t, view.ReportID)
	assert.Equal(t, "rep-1", *view.ReportID)
}
