package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
	"github.com/noah-isme/sikap-pkl-api/pkg/export"
)

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

// CertificateExportService renders issued certificates as PDF documents.
// Reports still in drafting have no certificate to print.
type CertificateExportService struct {
	reports      reportReader
	placements   placementReader
	snapshots    snapshotReader
	renderer     certificateRenderer
	defaultPlace string
	logger       *zap.Logger
}

// NewCertificateExportService constructs CertificateExportService.
func NewCertificateExportService(reports reportReader, placements placementReader, snapshots snapshotReader, renderer certificateRenderer, defaultPlace string, logger *zap.Logger) *CertificateExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateExportService{
		reports:      reports,
		placements:   placements,
		snapshots:    snapshots,
		renderer:     renderer,
		defaultPlace: defaultPlace,
		logger:       logger,
	}
}

// RenderPDF builds and renders the certificate for an issued report.
func (s *CertificateExportService) RenderPDF(ctx context.Context, reportID string, actor *models.JWTClaims) ([]byte, string, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "final report not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final report")
	}
	if report.State != models.ReportIssued || report.CertificateNumber == nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "certificate has not been issued for this report")
	}

	detail, err := s.placements.FindDetail(ctx, report.PlacementID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if err := requireMentorScope(detail, actor); err != nil {
		return nil, "", err
	}

	scores, err := s.reports.ListScores(ctx, reportID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score rows")
	}

	doc := export.CertificateDocument{
		Number:       *report.CertificateNumber,
		StudentName:  stringOr(detail.StudentName, "-"),
		StudentNIS:   stringOr(detail.StudentNIS, ""),
		School:       stringOr(detail.StudentSchool, ""),
		Major:        stringOr(detail.StudentMajor, ""),
		CompanyName:  stringOr(detail.CompanyName, "-"),
		AverageScore: report.AverageScore,
		SignerName:   stringOr(report.SignerName, "-"),
		SignerRole:   stringOr(report.SignerRole, "-"),
	}
	if report.Predicate != nil {
		doc.Predicate = *report.Predicate
	}
	if report.CertStartDate != nil {
		doc.StartDate = formatIndonesianDate(*report.CertStartDate)
	}
	if report.CertEndDate != nil {
		doc.EndDate = formatIndonesianDate(*report.CertEndDate)
	}
	if report.DurationMonths != nil {
		doc.DurationMonths = *report.DurationMonths
	}
	if report.IssuedAt != nil {
		doc.IssuedAt = formatIndonesianDate(*report.IssuedAt)
	}
	doc.Place = s.defaultPlace
	if snap, err := s.snapshots.FindByPlacement(ctx, report.PlacementID); err == nil && snap.Form.Place != "" {
		doc.Place = snap.Form.Place
	} else if err != nil && err != sql.ErrNoRows {
		s.logger.Warn("failed to load wizard snapshot for certificate place", zap.Error(err))
	}
	for _, row := range scores {
		item := export.CertificateScoreRow{Name: row.Name, Score: row.Score}
		switch row.Category {
		case models.CategoryPersonality:
			doc.PersonalityScores = append(doc.PersonalityScores, item)
		case models.CategoryTechnical:
			doc.TechnicalScores = append(doc.TechnicalScores, item)
		}
	}

	data, err := s.renderer.Render(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := fmt.Sprintf("sertifikat-%s.pdf", report.ID)
	return data, filename, nil
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func formatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}
