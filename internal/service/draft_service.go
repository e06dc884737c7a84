package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	"github.com/noah-isme/sikap-pkl-api/pkg/config"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type reportByPlacementReader interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.FinalReport, error)
}

type snapshotReader interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.WizardSnapshot, error)
}

type catalogLister interface {
	ListFor(ctx context.Context, track string) (*models.CompetencyCatalog, error)
}

type taskScoreReader interface {
	SumApprovedByStudent(ctx context.Context, studentID string) (map[string]float64, error)
}

type certificatePreviewer interface {
	Preview(ctx context.Context, companyCode string) (models.CertificatePreview, error)
}

// DraftService composes the pre-persistence view of a final report from an
// abandoned wizard snapshot, the placement relations and institution
// defaults, in that precedence. Pure read: nothing is reserved or written.
type DraftService struct {
	placements placementReader
	reports    reportByPlacementReader
	snapshots  snapshotReader
	catalog    catalogLister
	taskScores taskScoreReader
	sequencer  certificatePreviewer
	defaults   config.CertificateConfig
	logger     *zap.Logger
}

// NewDraftService constructs DraftService.
func NewDraftService(placements placementReader, reports reportByPlacementReader, snapshots snapshotReader, catalog catalogLister, taskScores taskScoreReader, sequencer certificatePreviewer, defaults config.CertificateConfig, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		placements: placements,
		reports:    reports,
		snapshots:  snapshots,
		catalog:    catalog,
		taskScores: taskScores,
		sequencer:  sequencer,
		defaults:   defaults,
		logger:     logger,
	}
}

// ComposeDraft assembles the draft view for a placement. Missing upstream
// fields degrade to their defaults instead of blocking composition; only a
// missing placement is an error.
func (s *DraftService) ComposeDraft(ctx context.Context, placementID string, actor *models.JWTClaims) (*models.DraftView, error) {
	detail, err := s.placements.FindDetail(ctx, placementID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if err := requireMentorScope(detail, actor); err != nil {
		return nil, err
	}

	var snapshot *models.WizardSnapshot
	if snap, err := s.snapshots.FindByPlacement(ctx, placementID); err == nil {
		snapshot = snap
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wizard snapshot")
	}

	view := &models.DraftView{
		PlacementID: placementID,
		CurrentStep: 1,
		Provenance:  models.FieldProvenance{},
		StartDate:   detail.StartDate,
		EndDate:     detail.EndDate,
	}
	if snapshot != nil {
		view.CurrentStep = snapshot.CurrentStep
		if snapshot.Provenance != nil {
			view.Provenance = snapshot.Provenance
		}
	}

	// An existing report means the wizard was already persisted; the caller
	// continues editing rather than starting over.
	if report, err := s.reports.FindByPlacement(ctx, placementID); err == nil {
		view.ReportID = &report.ID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final report")
	}

	view.Form = s.mergeForm(snapshot, detail)

	scores, err := s.composeScores(ctx, snapshot, detail, view.Form.StudentMajor)
	if err != nil {
		return nil, err
	}
	view.Scores = scores

	companyCode := stringOr(detail.CompanyShortCode, "")
	preview, err := s.sequencer.Preview(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	view.CertificatePreview = preview

	return view, nil
}

// mergeForm resolves every form field: a manually edited snapshot value wins,
// then the placement relations, then a derived snapshot value, then the
// institution default.
func (s *DraftService) mergeForm(snapshot *models.WizardSnapshot, detail *models.PlacementDetail) models.FormFields {
	var snap models.FormFields
	var prov models.FieldProvenance
	if snapshot != nil {
		snap = snapshot.Form
		prov = snapshot.Provenance
	}

	pick := func(field, snapValue, relation, fallback string) string {
		if snapValue != "" && prov.IsManual(field) {
			return snapValue
		}
		if relation != "" {
			return relation
		}
		if snapValue != "" {
			return snapValue
		}
		return fallback
	}

	major := stringOr(detail.StudentMajor, "")
	return models.FormFields{
		CompanyName:         pick("companyName", snap.CompanyName, stringOr(detail.CompanyName, ""), ""),
		CompanyLogoURL:      pick("companyLogoUrl", snap.CompanyLogoURL, stringOr(detail.CompanyLogoURL, ""), ""),
		MentorName:          pick("mentorName", snap.MentorName, stringOr(detail.MentorName, ""), ""),
		MentorSignatureURL:  pick("mentorSignatureUrl", snap.MentorSignatureURL, stringOr(detail.MentorSignatureURL, ""), ""),
		StudentName:         pick("studentName", snap.StudentName, stringOr(detail.StudentName, ""), ""),
		StudentNIS:          pick("studentNis", snap.StudentNIS, stringOr(detail.StudentNIS, ""), ""),
		StudentMajor:        pick("studentMajor", snap.StudentMajor, major, ""),
		StudentGrade:        pick("studentGrade", snap.StudentGrade, "", s.defaults.DefaultStudentGrade),
		SchoolName:          pick("schoolName", snap.SchoolName, stringOr(detail.StudentSchool, ""), ""),
		SchoolLogoURL:       pick("schoolLogoUrl", snap.SchoolLogoURL, "", ""),
		ProgramKeahlian:     pick("programKeahlian", snap.ProgramKeahlian, major, ""),
		KonsentrasiKeahlian: pick("konsentrasiKeahlian", snap.KonsentrasiKeahlian, major, ""),
		BidangKeahlian:      pick("bidangKeahlian", snap.BidangKeahlian, "", s.defaults.DefaultField),
		AcademicYear:        pick("academicYear", snap.AcademicYear, "", s.defaults.DefaultAcademicYear),
		Place:               pick("place", snap.Place, "", s.defaults.DefaultPlace),
	}
}

// composeScores pre-fills one row per applicable template. Snapshot scores
// win; otherwise the row starts at the sum of the student's approved task
// submissions for that competency, or zero.
func (s *DraftService) composeScores(ctx context.Context, snapshot *models.WizardSnapshot, detail *models.PlacementDetail, track string) ([]models.DraftScore, error) {
	catalog, err := s.catalog.ListFor(ctx, track)
	if err != nil {
		return nil, err
	}

	sums, err := s.taskScores.SumApprovedByStudent(ctx, detail.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved task scores")
	}

	saved := map[string]float64{}
	if snapshot != nil {
		for _, row := range snapshot.Scores {
			saved[row.CompetencyTemplateID] = row.Score
		}
	}

	templates := make([]models.CompetencyTemplate, 0, len(catalog.Personality)+len(catalog.Technical))
	templates = append(templates, catalog.Personality...)
	templates = append(templates, catalog.Technical...)

	scores := make([]models.DraftScore, 0, len(templates))
	for _, tpl := range templates {
		value, ok := saved[tpl.ID]
		if !ok {
			value = sums[tpl.ID]
		}
		scores = append(scores, models.DraftScore{
			CompetencyTemplateID: tpl.ID,
			Name:                 tpl.Name,
			Category:             tpl.Category,
			Score:                value,
		})
	}
	return scores, nil
}

func stringOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
