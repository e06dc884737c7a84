package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type reportReader interface {
	FindByID(ctx context.Context, id string) (*models.FinalReport, error)
	ListScores(ctx context.Context, reportID string) ([]models.ScoredCompetency, error)
	List(ctx context.Context, filter models.FinalReportFilter) ([]models.FinalReportListRow, int, error)
}

// ReportService serves the read paths downstream printing and export views
// consume: the listing and the grouped detail.
type ReportService struct {
	reports    reportReader
	placements placementReader
	logger     *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(reports reportReader, placements placementReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{reports: reports, placements: placements, logger: logger}
}

// List returns final report rows visible to the actor. Mentors only see
// their own mentees.
func (s *ReportService) List(ctx context.Context, filter models.FinalReportFilter, actor *models.JWTClaims) ([]models.FinalReportListRow, *models.Pagination, error) {
	if actor != nil && actor.Role == models.RoleMentor {
		filter.MentorUserID = actor.UserID
	}
	rows, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list final reports")
	}
	for i := range rows {
		if rows[i].ScoreCount > 0 {
			rows[i].AverageScore = roundScore(rows[i].TotalScore / float64(rows[i].ScoreCount))
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Detail returns a report with its score rows grouped by category, ordered
// by display position, plus the student block and aggregates.
func (s *ReportService) Detail(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.FinalReportDetail, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final report")
	}

	detail, err := s.placements.FindDetail(ctx, report.PlacementID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if err := requireMentorScope(detail, actor); err != nil {
		return nil, err
	}

	scores, err := s.reports.ListScores(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score rows")
	}

	grouped := models.GroupedScores{
		Personality: []models.ScoredCompetency{},
		Technical:   []models.ScoredCompetency{},
	}
	total := 0.0
	for _, row := range scores {
		total += row.Score
		switch row.Category {
		case models.CategoryPersonality:
			grouped.Personality = append(grouped.Personality, row)
		case models.CategoryTechnical:
			grouped.Technical = append(grouped.Technical, row)
		}
	}
	average := 0.0
	if len(scores) > 0 {
		average = roundScore(total / float64(len(scores)))
	}

	return &models.FinalReportDetail{
		Report: *report,
		Student: models.StudentSummary{
			Name:   stringOr(detail.StudentName, ""),
			NIS:    stringOr(detail.StudentNIS, ""),
			School: detail.StudentSchool,
			Cohort: detail.StudentCohort,
			Major:  detail.StudentMajor,
		},
		Status:       detail.Status,
		Scores:       grouped,
		TotalScore:   total,
		AverageScore: average,
	}, nil
}
