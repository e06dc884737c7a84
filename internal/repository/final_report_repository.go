package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

const finalReportColumns = `id, placement_id, title, content, submitted_at, total_score, average_score,
        predicate, approved_by, approved_at, state,
        company_code, cert_sequence, cert_month, cert_year, certificate_number,
        cert_start_date, cert_end_date, signer_name, signer_role, duration_months, issued_at,
        created_at, updated_at`

// FinalReportRepository manages final report rows, their score sets and the
// certificate fields.
type FinalReportRepository struct {
	db *sqlx.DB
}

// NewFinalReportRepository constructs repository.
func NewFinalReportRepository(db *sqlx.DB) *FinalReportRepository {
	return &FinalReportRepository{db: db}
}

// FindByID returns a final report row or sql.ErrNoRows.
func (r *FinalReportRepository) FindByID(ctx context.Context, id string) (*models.FinalReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM final_reports WHERE id = $1`, finalReportColumns)
	var report models.FinalReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByPlacement returns the at-most-one report for a placement or
// sql.ErrNoRows.
func (r *FinalReportRepository) FindByPlacement(ctx context.Context, placementID string) (*models.FinalReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM final_reports WHERE placement_id = $1`, finalReportColumns)
	var report models.FinalReport
	if err := r.db.GetContext(ctx, &report, query, placementID); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a fresh drafting report for a placement. The partial unique
// index on placement_id keeps concurrent first-saves down to a single row;
// callers treat the conflict as "continue editing the existing report".
func (r *FinalReportRepository) Create(ctx context.Context, report *models.FinalReport) error {
	now := time.Now().UTC()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = now
	}
	if report.State == "" {
		report.State = models.ReportDrafting
	}
	report.CreatedAt = now
	report.UpdatedAt = now

	const query = `INSERT INTO final_reports (id, placement_id, title, content, submitted_at, total_score, average_score, state, created_at, updated_at)
        VALUES (:id, :placement_id, :title, :content, :submitted_at, :total_score, :average_score, :state, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "final report already exists for placement")
		}
		return fmt.Errorf("create final report: %w", err)
	}
	return nil
}

// ReplaceScores swaps the entire score row set of a report and writes back
// the precomputed aggregates, all in one transaction. The report row is
// locked for the duration so concurrent replacements for the same report
// serialize; different reports never contend.
func (r *FinalReportRepository) ReplaceScores(ctx context.Context, reportID string, rows []models.ScoreInput, total, average float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace scores: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var state models.ReportState
	if err := tx.GetContext(ctx, &state, `SELECT state FROM final_reports WHERE id = $1 FOR UPDATE`, reportID); err != nil {
		return err
	}
	if state == models.ReportIssued {
		return appErrors.ErrReportIssued
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM final_report_scores WHERE final_report_id = $1`, reportID); err != nil {
		return fmt.Errorf("delete score rows: %w", err)
	}

	const insert = `INSERT INTO final_report_scores (id, final_report_id, competency_template_id, score, created_at)
        VALUES (:id, :final_report_id, :competency_template_id, :score, :created_at)`
	now := time.Now().UTC()
	for _, row := range rows {
		score := models.FinalReportScore{
			ID:                   uuid.NewString(),
			FinalReportID:        reportID,
			CompetencyTemplateID: row.CompetencyTemplateID,
			Score:                row.Score,
			CreatedAt:            now,
		}
		if _, err := tx.NamedExecContext(ctx, insert, score); err != nil {
			return fmt.Errorf("insert score row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE final_reports SET total_score = $1, average_score = $2, updated_at = $3 WHERE id = $4`,
		total, average, now, reportID); err != nil {
		return fmt.Errorf("update aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace scores: %w", err)
	}
	return nil
}

// ListScores returns the stored score rows joined with their templates,
// ordered by display position.
func (r *FinalReportRepository) ListScores(ctx context.Context, reportID string) ([]models.ScoredCompetency, error) {
	const query = `SELECT frs.competency_template_id, ct.name, ct.category, ct.position, frs.score
        FROM final_report_scores frs
        JOIN competency_templates ct ON ct.id = frs.competency_template_id
        WHERE frs.final_report_id = $1
        ORDER BY ct.position, ct.id`
	var scores []models.ScoredCompetency
	if err := r.db.SelectContext(ctx, &scores, query, reportID); err != nil {
		return nil, fmt.Errorf("list score rows: %w", err)
	}
	return scores, nil
}

// CountScores returns the number of score rows currently stored for a report.
func (r *FinalReportRepository) CountScores(ctx context.Context, reportID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM final_report_scores WHERE final_report_id = $1`, reportID); err != nil {
		return 0, fmt.Errorf("count score rows: %w", err)
	}
	return count, nil
}

// NextSequence computes the next certificate sequence for a scope by counting
// issued certificates, not a separate counter. Advisory until the issuing
// update lands; the partial unique index arbitrates races.
func (r *FinalReportRepository) NextSequence(ctx context.Context, companyCode string, month, year int) (int, error) {
	const query = `SELECT COALESCE(MAX(cert_sequence), 0) + 1 FROM final_reports
        WHERE company_code = $1 AND cert_month = $2 AND cert_year = $3 AND state = $4`
	var next int
	if err := r.db.GetContext(ctx, &next, query, companyCode, month, year, models.ReportIssued); err != nil {
		return 0, fmt.Errorf("next certificate sequence: %w", err)
	}
	return next, nil
}

// IssueCertificateParams carries the fields written by the terminal
// transition.
type IssueCertificateParams struct {
	Predicate      string
	CompanyCode    string
	Sequence       int
	Month          int
	Year           int
	Number         string
	StartDate      *time.Time
	EndDate        *time.Time
	SignerName     string
	SignerRole     string
	DurationMonths int
	ApprovedBy     *string
}

// IssueCertificate performs the drafting -> issued transition. A unique
// violation on the certificate-number scope maps to
// ErrCertificateNumberTaken so the caller can re-read the sequence and
// retry; zero affected rows means the report already left drafting.
func (r *FinalReportRepository) IssueCertificate(ctx context.Context, reportID string, params IssueCertificateParams) error {
	const query = `UPDATE final_reports SET
        state = $1, predicate = $2, company_code = $3, cert_sequence = $4, cert_month = $5, cert_year = $6,
        certificate_number = $7, cert_start_date = $8, cert_end_date = $9, signer_name = $10, signer_role = $11,
        duration_months = $12, approved_by = $13, approved_at = $14, issued_at = $14, updated_at = $14
        WHERE id = $15 AND state = $16`
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		models.ReportIssued, params.Predicate, params.CompanyCode, params.Sequence, params.Month, params.Year,
		params.Number, params.StartDate, params.EndDate, params.SignerName, params.SignerRole,
		params.DurationMonths, params.ApprovedBy, now, reportID, models.ReportDrafting)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrCertificateNumberTaken
		}
		return fmt.Errorf("issue certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("issue certificate rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrReportIssued
	}
	return nil
}

// List returns paginated listing rows with aggregates computed from the
// stored score rows.
func (r *FinalReportRepository) List(ctx context.Context, filter models.FinalReportFilter) ([]models.FinalReportListRow, int, error) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}
	next := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Cohort != "" {
		conditions = append(conditions, "s.cohort = "+next(filter.Cohort))
	}
	if filter.Status != "" {
		conditions = append(conditions, "p.status = "+next(string(filter.Status)))
	}
	if filter.MentorUserID != "" {
		conditions = append(conditions, "m.user_id = "+next(filter.MentorUserID))
	}
	if filter.Search != "" {
		conditions = append(conditions, "(s.full_name ILIKE "+next("%"+filter.Search+"%")+" OR s.nis ILIKE "+next("%"+filter.Search+"%")+")")
	}
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT fr.id)
        FROM final_reports fr
        JOIN placements p ON p.id = fr.placement_id
        JOIN students s ON s.id = p.student_id
        JOIN mentors m ON m.id = p.mentor_id
        WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count final reports: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	limitArgs := append(args, pageSize, (page-1)*pageSize)

	listQuery := fmt.Sprintf(`SELECT fr.id, fr.placement_id, s.full_name AS student_name, s.nis AS student_nis,
        s.school, s.cohort, p.status, fr.state,
        COALESCE(SUM(frs.score), 0) AS total_score, COUNT(frs.id) AS score_count
        FROM final_reports fr
        JOIN placements p ON p.id = fr.placement_id
        JOIN students s ON s.id = p.student_id
        JOIN mentors m ON m.id = p.mentor_id
        LEFT JOIN final_report_scores frs ON frs.final_report_id = fr.id
        WHERE %s
        GROUP BY fr.id, fr.placement_id, s.full_name, s.nis, s.school, s.cohort, p.status, fr.state
        ORDER BY s.full_name, fr.id
        LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	var rows []models.FinalReportListRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, limitArgs...); err != nil {
		return nil, 0, fmt.Errorf("list final reports: %w", err)
	}
	return rows, total, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
