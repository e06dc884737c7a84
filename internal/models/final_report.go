package models

import "time"

// ReportState is the explicit finalization state carried on a final report
// row. The "unstarted" state of the lifecycle is the absence of the row.
type ReportState string

const (
	// ReportDrafting means the row exists but no certificate was issued.
	ReportDrafting ReportState = "DRAFTING"
	// ReportIssued is terminal: certificate fields are populated and frozen.
	ReportIssued ReportState = "ISSUED"
)

// CanTransition reports whether moving to the target state is legal.
// Issued is terminal.
func (s ReportState) CanTransition(to ReportState) bool {
	switch s {
	case ReportDrafting:
		return to == ReportIssued
	default:
		return false
	}
}

// Predicate labels derived from the average score.
const (
	PredicateExcellent = "SANGAT BAIK"
	PredicateGood      = "BAIK"
	PredicateFair      = "CUKUP"
	PredicatePoor      = "KURANG"
)

// PredicateForAverage bands an average score into its certificate predicate.
func PredicateForAverage(avg float64) string {
	switch {
	case avg >= 90:
		return PredicateExcellent
	case avg >= 80:
		return PredicateGood
	case avg >= 70:
		return PredicateFair
	default:
		return PredicatePoor
	}
}

// FinalReport is the scored, eventually certified record for one placement.
type FinalReport struct {
	ID           string      `db:"id" json:"id"`
	PlacementID  string      `db:"placement_id" json:"placement_id"`
	Title        *string     `db:"title" json:"title,omitempty"`
	Content      *string     `db:"content" json:"content,omitempty"`
	SubmittedAt  time.Time   `db:"submitted_at" json:"submitted_at"`
	TotalScore   float64     `db:"total_score" json:"total_score"`
	AverageScore float64     `db:"average_score" json:"average_score"`
	Predicate    *string     `db:"predicate" json:"predicate,omitempty"`
	ApprovedBy   *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	State        ReportState `db:"state" json:"state"`

	// Certificate fields, populated exactly once at issuance.
	CompanyCode       *string    `db:"company_code" json:"company_code,omitempty"`
	CertSequence      *int       `db:"cert_sequence" json:"cert_sequence,omitempty"`
	CertMonth         *int       `db:"cert_month" json:"cert_month,omitempty"`
	CertYear          *int       `db:"cert_year" json:"cert_year,omitempty"`
	CertificateNumber *string    `db:"certificate_number" json:"certificate_number,omitempty"`
	CertStartDate     *time.Time `db:"cert_start_date" json:"cert_start_date,omitempty"`
	CertEndDate       *time.Time `db:"cert_end_date" json:"cert_end_date,omitempty"`
	SignerName        *string    `db:"signer_name" json:"signer_name,omitempty"`
	SignerRole        *string    `db:"signer_role" json:"signer_role,omitempty"`
	DurationMonths    *int       `db:"duration_months" json:"duration_months,omitempty"`
	IssuedAt          *time.Time `db:"issued_at" json:"issued_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FinalReportScore is one (report, competency) score row. The full row set
// is always replaced together so the aggregates never drift.
type FinalReportScore struct {
	ID                   string    `db:"id" json:"id"`
	FinalReportID        string    `db:"final_report_id" json:"final_report_id"`
	CompetencyTemplateID string    `db:"competency_template_id" json:"competency_template_id"`
	Score                float64   `db:"score" json:"score"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// ScoredCompetency joins a score row with its template for grouped views.
type ScoredCompetency struct {
	CompetencyTemplateID string             `db:"competency_template_id" json:"competency_template_id"`
	Name                 string             `db:"name" json:"name"`
	Category             CompetencyCategory `db:"category" json:"category"`
	Position             int                `db:"position" json:"position"`
	Score                float64            `db:"score" json:"score"`
}

// GroupedScores is the certificate-annex shape consumed by printing views.
type GroupedScores struct {
	Personality []ScoredCompetency `json:"personality"`
	Technical   []ScoredCompetency `json:"technical"`
}

// FinalReportListRow is one row of the admin/mentor listing, aggregates
// computed from the currently stored score rows.
type FinalReportListRow struct {
	ID           string          `db:"id" json:"id"`
	PlacementID  string          `db:"placement_id" json:"placement_id"`
	StudentName  string          `db:"student_name" json:"student_name"`
	StudentNIS   string          `db:"student_nis" json:"student_nis"`
	School       *string         `db:"school" json:"school,omitempty"`
	Cohort       *string         `db:"cohort" json:"cohort,omitempty"`
	Status       PlacementStatus `db:"status" json:"status"`
	State        ReportState     `db:"state" json:"state"`
	TotalScore   float64         `db:"total_score" json:"total_score"`
	ScoreCount   int             `db:"score_count" json:"-"`
	AverageScore float64         `json:"average_score"`
}

// FinalReportFilter captures the listing filters.
type FinalReportFilter struct {
	Cohort       string
	Status       PlacementStatus
	Search       string
	MentorUserID string
	Page         int
	PageSize     int
}

// FinalReportDetail is the read accessor shape for the edit and print paths.
type FinalReportDetail struct {
	Report       FinalReport     `json:"report"`
	Student      StudentSummary  `json:"student"`
	Status       PlacementStatus `json:"placement_status"`
	Scores       GroupedScores   `json:"scores"`
	TotalScore   float64         `json:"total_score"`
	AverageScore float64         `json:"average_score"`
}

// StudentSummary is the student block embedded in report views.
type StudentSummary struct {
	Name   string  `json:"name"`
	NIS    string  `json:"nis"`
	School *string `json:"school,omitempty"`
	Cohort *string `json:"cohort,omitempty"`
	Major  *string `json:"major,omitempty"`
}
