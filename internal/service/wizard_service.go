package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

// Wizard step bounds: company info, student info, scores, report preview,
// certificate data, confirmation.
const (
	wizardFirstStep = 1
	wizardLastStep  = 6
)

// Step directions accepted by Save.
const (
	DirectionStay = "stay"
	DirectionNext = "next"
	DirectionBack = "back"
)

type wizardReportStore interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.FinalReport, error)
	Create(ctx context.Context, report *models.FinalReport) error
}

type snapshotStore interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.WizardSnapshot, error)
	Upsert(ctx context.Context, snapshot *models.WizardSnapshot) error
}

type scoreLedger interface {
	UpsertScores(ctx context.Context, req UpsertScoresRequest, actor *models.JWTClaims) (*UpsertScoresResult, error)
}

// WizardSaveRequest carries one wizard save: the full form shape every time,
// regardless of which step produced it.
type WizardSaveRequest struct {
	PlacementID string                 `json:"placement_id" validate:"required"`
	Direction   string                 `json:"direction" validate:"omitempty,oneof=stay next back"`
	CurrentStep int                    `json:"current_step" validate:"min=1,max=6"`
	Form        models.FormFields      `json:"form"`
	Provenance  models.FieldProvenance `json:"provenance"`
	Scores      []models.ScoreInput    `json:"scores" validate:"dive"`
}

// WizardSaveResult reports where the wizard landed.
type WizardSaveResult struct {
	FinalReportID string  `json:"final_report_id"`
	CurrentStep   int     `json:"current_step"`
	TotalScore    float64 `json:"total_score"`
	AverageScore  float64 `json:"average_score"`
}

// WizardService persists partial wizard edits across steps. Saving is
// idempotent: the same input always lands in the same stored state, and the
// report row is created at most once per placement.
type WizardService struct {
	placements placementReader
	reports    wizardReportStore
	snapshots  snapshotStore
	ledger     scoreLedger
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewWizardService constructs WizardService.
func NewWizardService(placements placementReader, reports wizardReportStore, snapshots snapshotStore, ledger scoreLedger, validate *validator.Validate, logger *zap.Logger) *WizardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		placements: placements,
		reports:    reports,
		snapshots:  snapshots,
		ledger:     ledger,
		validator:  validate,
		logger:     logger,
	}
}

// Save writes the full form through the snapshot store, routes score changes
// through the score ledger, creates the report row on first save, and moves
// the step per the requested direction.
func (s *WizardService) Save(ctx context.Context, req WizardSaveRequest, actor *models.JWTClaims) (*WizardSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wizard payload")
	}

	detail, err := s.placements.FindDetail(ctx, req.PlacementID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if err := requireMentorScope(detail, actor); err != nil {
		return nil, err
	}

	result := &WizardSaveResult{CurrentStep: nextStep(req.CurrentStep, req.Direction)}

	if len(req.Scores) > 0 {
		ledgerResult, err := s.ledger.UpsertScores(ctx, UpsertScoresRequest{PlacementID: req.PlacementID, Scores: req.Scores}, actor)
		if err != nil {
			return nil, err
		}
		result.FinalReportID = ledgerResult.FinalReportID
		result.TotalScore = ledgerResult.TotalScore
		result.AverageScore = ledgerResult.AverageScore
	} else {
		report, err := s.ensureReport(ctx, req.PlacementID)
		if err != nil {
			return nil, err
		}
		if report.State == models.ReportIssued {
			return nil, appErrors.ErrReportIssued
		}
		result.FinalReportID = report.ID
		result.TotalScore = report.TotalScore
		result.AverageScore = report.AverageScore
	}

	snapshot := &models.WizardSnapshot{
		PlacementID:   req.PlacementID,
		FinalReportID: &result.FinalReportID,
		CurrentStep:   result.CurrentStep,
		Form:          req.Form,
		Provenance:    normalizeProvenance(req.Provenance, req.Form),
		Scores:        models.ScoreInputs(req.Scores),
	}
	if existing, err := s.snapshots.FindByPlacement(ctx, req.PlacementID); err == nil {
		snapshot.ID = existing.ID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wizard snapshot")
	}
	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard snapshot")
	}

	s.logger.Info("wizard state saved",
		zap.String("placement_id", req.PlacementID),
		zap.String("final_report_id", result.FinalReportID),
		zap.Int("step", result.CurrentStep))

	return result, nil
}

func (s *WizardService) ensureReport(ctx context.Context, placementID string) (*models.FinalReport, error) {
	report, err := s.reports.FindByPlacement(ctx, placementID)
	if err == nil {
		return report, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final report")
	}

	fresh := &models.FinalReport{PlacementID: placementID, State: models.ReportDrafting}
	if err := s.reports.Create(ctx, fresh); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return s.reports.FindByPlacement(ctx, placementID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create final report")
	}
	return fresh, nil
}

func nextStep(current int, direction string) int {
	switch direction {
	case DirectionNext:
		if current < wizardLastStep {
			return current + 1
		}
		return wizardLastStep
	case DirectionBack:
		if current > wizardFirstStep {
			return current - 1
		}
		return wizardFirstStep
	default:
		return current
	}
}

// normalizeProvenance fills missing tags: a non-empty field saved without an
// explicit tag counts as manual, so a saved value keeps winning over the
// placement relations on the next draft composition.
func normalizeProvenance(prov models.FieldProvenance, form models.FormFields) models.FieldProvenance {
	result := models.FieldProvenance{}
	for field, value := range map[string]string{
		"companyName":         form.CompanyName,
		"companyLogoUrl":      form.CompanyLogoURL,
		"mentorName":          form.MentorName,
		"mentorSignatureUrl":  form.MentorSignatureURL,
		"studentName":         form.StudentName,
		"studentNis":          form.StudentNIS,
		"studentMajor":        form.StudentMajor,
		"studentGrade":        form.StudentGrade,
		"schoolName":          form.SchoolName,
		"schoolLogoUrl":       form.SchoolLogoURL,
		"programKeahlian":     form.ProgramKeahlian,
		"konsentrasiKeahlian": form.KonsentrasiKeahlian,
		"bidangKeahlian":      form.BidangKeahlian,
		"academicYear":        form.AcademicYear,
		"place":               form.Place,
	} {
		if tag, ok := prov[field]; ok {
			result[field] = tag
			continue
		}
		if value != "" {
			result[field] = models.SourceManual
		}
	}
	return result
}
