package service

import (
	"context"
	"database/sql"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type placementReader interface {
	FindDetail(ctx context.Context, id string) (*models.PlacementDetail, error)
}

type scoreStore interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.FinalReport, error)
	Create(ctx context.Context, report *models.FinalReport) error
	ReplaceScores(ctx context.Context, reportID string, rows []models.ScoreInput, total, average float64) error
}

type scoreMetrics interface {
	IncScoresReplaced()
}

// UpsertScoresRequest is the full-replace score payload for one placement.
type UpsertScoresRequest struct {
	PlacementID string              `json:"placement_id" validate:"required"`
	Scores      []models.ScoreInput `json:"scores" validate:"dive"`
}

// UpsertScoresResult echoes the recomputed aggregates.
type UpsertScoresResult struct {
	FinalReportID string  `json:"final_report_id"`
	TotalScore    float64 `json:"total_score"`
	AverageScore  float64 `json:"average_score"`
}

// ScoreService is the single writer of final report score rows. Callers
// always replace the full row set, so the stored aggregates can never drift
// from the visible rows.
type ScoreService struct {
	placements   placementReader
	reports      scoreStore
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      scoreMetrics
	roundingMode func(float64) float64
}

// NewScoreService constructs ScoreService.
func NewScoreService(placements placementReader, reports scoreStore, validate *validator.Validate, logger *zap.Logger, metrics scoreMetrics) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{
		placements:   placements,
		reports:      reports,
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		roundingMode: roundScore,
	}
}

// roundScore rounds to 2 decimal places, half away from zero. This matches
// the established certificate math; changing it would shift printed averages.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// UpsertScores replaces the score set for a placement's report, creating the
// report on first write. Average is total over row count, rounded to 2
// decimals; an empty row set yields zero aggregates, not an error.
func (s *ScoreService) UpsertScores(ctx context.Context, req UpsertScoresRequest, actor *models.JWTClaims) (*UpsertScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	for _, row := range req.Scores {
		if row.Score < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "scores must not be negative")
		}
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

	report, err := s.ensureReport(ctx, req.PlacementID)
	if err != nil {
		return nil, err
	}
	if report.State == models.ReportIssued {
		return nil, appErrors.ErrReportIssued
	}

	total := 0.0
	for _, row := range req.Scores {
		total += row.Score
	}
	average := 0.0
	if len(req.Scores) > 0 {
		average = s.roundingMode(total / float64(len(req.Scores)))
	}

	if err := s.reports.ReplaceScores(ctx, report.ID, req.Scores, total, average); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrReportIssued.Code {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace scores")
	}
	if s.metrics != nil {
		s.metrics.IncScoresReplaced()
	}

	s.logger.Info("final report scores replaced",
		zap.String("final_report_id", report.ID),
		zap.Int("rows", len(req.Scores)),
		zap.Float64("total", total),
		zap.Float64("average", average))

	return &UpsertScoresResult{FinalReportID: report.ID, TotalScore: total, AverageScore: average}, nil
}

// ensureReport finds the placement's report or creates a drafting one. A
// concurrent first write surfaces as a conflict from the unique placement
// index; the loser re-reads and continues editing the winner's row.
func (s *ScoreService) ensureReport(ctx context.Context, placementID string) (*models.FinalReport, error) {
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

// requireMentorScope honors the upstream authorization decision: mentors may
// only touch placements they supervise; admins pass through.
func requireMentorScope(detail *models.PlacementDetail, actor *models.JWTClaims) error {
	if actor == nil || actor.Role != models.RoleMentor {
		return nil
	}
	if detail.MentorUserID == nil || *detail.MentorUserID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "placement is not supervised by caller")
	}
	return nil
}
