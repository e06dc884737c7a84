package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	"github.com/noah-isme/sikap-pkl-api/internal/repository"
	"github.com/noah-isme/sikap-pkl-api/pkg/config"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type finalizeReportStore interface {
	FindByID(ctx context.Context, id string) (*models.FinalReport, error)
	CountScores(ctx context.Context, reportID string) (int, error)
	IssueCertificate(ctx context.Context, reportID string, params repository.IssueCertificateParams) error
}

type sequenceAllocator interface {
	Next(ctx context.Context, companyCode string, at time.Time) (int, error)
}

type finalizeMetrics interface {
	IncCertificateIssued()
	IncCertificateConflict()
}

// FinalizeRequest carries the terminal transition payload. Empty optional
// fields are derived: predicate from the average score, dates from the
// placement, signer name from the mentor, duration from the date span.
type FinalizeRequest struct {
	ReportID       string     `json:"report_id" validate:"required"`
	Predicate      string     `json:"predicate"`
	CompanyCode    string     `json:"company_code"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	SignerName     string     `json:"signer_name"`
	SignerRole     string     `json:"signer_role"`
	DurationMonths *int       `json:"duration_months" validate:"omitempty,min=0"`
}

// FinalizeResult is the issued certificate identity.
type FinalizeResult struct {
	FinalReportID     string    `json:"final_report_id"`
	CertificateNumber string    `json:"certificate_number"`
	Sequence          int       `json:"sequence"`
	Predicate         string    `json:"predicate"`
	IssuedAt          time.Time `json:"issued_at"`
}

// FinalizeService governs the drafting -> issued transition: the only
// irreversible step in the pipeline. It allocates the certificate number and
// retries on scope collisions; issued reports never change again.
type FinalizeService struct {
	reports    finalizeReportStore
	placements placementReader
	sequencer  sequenceAllocator
	defaults   config.CertificateConfig
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    finalizeMetrics
	now        func() time.Time
}

// NewFinalizeService constructs FinalizeService.
func NewFinalizeService(reports finalizeReportStore, placements placementReader, sequencer sequenceAllocator, defaults config.CertificateConfig, validate *validator.Validate, logger *zap.Logger, metrics finalizeMetrics) *FinalizeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.MaxIssueRetries <= 0 {
		defaults.MaxIssueRetries = 3
	}
	return &FinalizeService{
		reports:    reports,
		placements: placements,
		sequencer:  sequencer,
		defaults:   defaults,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Finalize issues the certificate for a drafting report. Preconditions: the
// report exists, has at least one score row, and has not been issued. The
// sequence is read and written under the scope's unique constraint; on a
// collision with a concurrent finalization the allocation is recomputed.
func (s *FinalizeService) Finalize(ctx context.Context, req FinalizeRequest, actor *models.JWTClaims) (*FinalizeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid finalize payload")
	}

	report, err := s.reports.FindByID(ctx, req.ReportID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final report")
	}
	if !report.State.CanTransition(models.ReportIssued) {
		return nil, appErrors.ErrReportIssued
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

	count, err := s.reports.CountScores(ctx, req.ReportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count score rows")
	}
	if count == 0 {
		return nil, appErrors.ErrEmptyScoreSet
	}

	fields := s.resolveFields(req, report, detail, actor)
	if fields.CompanyCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "company short code required for certificate numbering")
	}
	issuedAt := s.now()
	month, year := int(issuedAt.Month()), issuedAt.Year()

	var issued repository.IssueCertificateParams
	for attempt := 0; attempt < s.defaults.MaxIssueRetries; attempt++ {
		sequence, err := s.sequencer.Next(ctx, fields.CompanyCode, issuedAt)
		if err != nil {
			return nil, err
		}
		fields.Sequence = sequence
		fields.Month = month
		fields.Year = year
		fields.Number = FormatCertificateNumber(sequence, fields.CompanyCode, month, year)

		err = s.reports.IssueCertificate(ctx, req.ReportID, fields)
		if err == nil {
			issued = fields
			break
		}
		if appErrors.FromError(err).Code == appErrors.ErrCertificateNumberTaken.Code {
			if s.metrics != nil {
				s.metrics.IncCertificateConflict()
			}
			s.logger.Warn("certificate number collision, retrying",
				zap.String("final_report_id", req.ReportID),
				zap.String("number", fields.Number),
				zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	if issued.Number == "" {
		return nil, appErrors.Clone(appErrors.ErrCertificateNumberTaken, "certificate numbering contended, retry finalization")
	}

	if s.metrics != nil {
		s.metrics.IncCertificateIssued()
	}
	s.logger.Info("certificate issued",
		zap.String("final_report_id", req.ReportID),
		zap.String("certificate_number", issued.Number),
		zap.String("predicate", issued.Predicate))

	return &FinalizeResult{
		FinalReportID:     req.ReportID,
		CertificateNumber: issued.Number,
		Sequence:          issued.Sequence,
		Predicate:         issued.Predicate,
		IssuedAt:          issuedAt,
	}, nil
}

// resolveFields fills the certificate fields a caller omitted from the
// report, placement and institution defaults.
func (s *FinalizeService) resolveFields(req FinalizeRequest, report *models.FinalReport, detail *models.PlacementDetail, actor *models.JWTClaims) repository.IssueCertificateParams {
	params := repository.IssueCertificateParams{
		Predicate:   req.Predicate,
		CompanyCode: req.CompanyCode,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SignerName:  req.SignerName,
		SignerRole:  req.SignerRole,
	}
	if params.Predicate == "" {
		params.Predicate = models.PredicateForAverage(report.AverageScore)
	}
	if params.CompanyCode == "" {
		params.CompanyCode = stringOr(detail.CompanyShortCode, "")
	}
	if params.StartDate == nil {
		params.StartDate = detail.StartDate
	}
	if params.EndDate == nil {
		params.EndDate = detail.EndDate
	}
	if params.SignerName == "" {
		params.SignerName = stringOr(detail.MentorName, "")
	}
	if params.SignerRole == "" {
		params.SignerRole = s.defaults.DefaultSignerRole
	}
	if req.DurationMonths != nil {
		params.DurationMonths = *req.DurationMonths
	} else {
		params.DurationMonths = durationMonths(params.StartDate, params.EndDate)
	}
	if actor != nil {
		userID := actor.UserID
		params.ApprovedBy = &userID
	}
	return params
}

// durationMonths is the calendar-month difference, floored at zero.
func durationMonths(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months
}
