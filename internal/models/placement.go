package models

import "time"

// PlacementStatus mirrors the lifecycle owned by the placement subsystem.
type PlacementStatus string

const (
	PlacementActive    PlacementStatus = "active"
	PlacementCompleted PlacementStatus = "completed"
	PlacementCanceled  PlacementStatus = "canceled"
)

// Placement is a student's assignment to a host company. Read-only here;
// the placement subsystem owns the rows.
type Placement struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	CompanyID string          `db:"company_id" json:"company_id"`
	MentorID  string          `db:"mentor_id" json:"mentor_id"`
	StartDate *time.Time      `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Status    PlacementStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// PlacementDetail joins the relations the draft composer copies fields from.
// Every pointer degrades to the draft default when nil.
type PlacementDetail struct {
	Placement
	StudentName        *string `db:"student_name" json:"student_name,omitempty"`
	StudentNIS         *string `db:"student_nis" json:"student_nis,omitempty"`
	StudentMajor       *string `db:"student_major" json:"student_major,omitempty"`
	StudentSchool      *string `db:"student_school" json:"student_school,omitempty"`
	StudentCohort      *string `db:"student_cohort" json:"student_cohort,omitempty"`
	CompanyName        *string `db:"company_name" json:"company_name,omitempty"`
	CompanyShortCode   *string `db:"company_short_code" json:"company_short_code,omitempty"`
	CompanyLogoURL     *string `db:"company_logo_url" json:"company_logo_url,omitempty"`
	MentorName         *string `db:"mentor_name" json:"mentor_name,omitempty"`
	MentorUserID       *string `db:"mentor_user_id" json:"mentor_user_id,omitempty"`
	MentorSignatureURL *string `db:"mentor_signature_url" json:"mentor_signature_url,omitempty"`
}

// ApprovedTaskScore is the upstream task-review read model aggregated for the
// draft pre-fill: the summed score of a student's approved submissions tagged
// against one competency.
type ApprovedTaskScore struct {
	CompetencyTemplateID string  `db:"competency_template_id" json:"competency_template_id"`
	Total                float64 `db:"total" json:"total"`
}
