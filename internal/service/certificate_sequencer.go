package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type sequenceReader interface {
	NextSequence(ctx context.Context, companyCode string, month, year int) (int, error)
}

// CertificateSequencer allocates human-readable certificate numbers, unique
// within a (company short code, month, year) scope. Sequences are derived by
// counting already-issued certificates in the scope; the database unique
// constraint arbitrates concurrent issuance.
type CertificateSequencer struct {
	reports sequenceReader
	now     func() time.Time
}

// NewCertificateSequencer constructs the sequencer.
func NewCertificateSequencer(reports sequenceReader) *CertificateSequencer {
	return &CertificateSequencer{reports: reports, now: time.Now}
}

// FormatCertificateNumber composes the printed number:
// zero-padded 3-digit sequence / company code / PKL / month / year.
func FormatCertificateNumber(sequence int, companyCode string, month, year int) string {
	return fmt.Sprintf("%03d/%s/PKL/%d/%d", sequence, companyCode, month, year)
}

// Next reads the next free sequence for the scope anchored at the given
// issue time. The value is only reserved once the issuing update commits.
func (s *CertificateSequencer) Next(ctx context.Context, companyCode string, at time.Time) (int, error) {
	next, err := s.reports.NextSequence(ctx, companyCode, int(at.Month()), at.Year())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate certificate sequence")
	}
	return next, nil
}

// Preview returns the advisory numbering shown while drafting. It is
// recomputed at finalization and may differ if another report in the same
// scope was issued in between.
func (s *CertificateSequencer) Preview(ctx context.Context, companyCode string) (models.CertificatePreview, error) {
	at := s.now()
	next, err := s.Next(ctx, companyCode, at)
	if err != nil {
		return models.CertificatePreview{}, err
	}
	return models.CertificatePreview{
		NextSequenceNumber: next,
		CompanyCode:        companyCode,
		Number:             FormatCertificateNumber(next, companyCode, int(at.Month()), at.Year()),
	}, nil
}
