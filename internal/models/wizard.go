package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldSource tags where a form value came from. Manual values survive draft
// recomposition; derived values are refreshed from the placement relations.
type FieldSource string

const (
	SourceDerived FieldSource = "derived"
	SourceManual  FieldSource = "manual"
)

// FormFields is the full final-report form. Every save writes the whole
// shape verbatim regardless of which wizard step produced it.
type FormFields struct {
	CompanyName         string `json:"companyName"`
	CompanyLogoURL      string `json:"companyLogoUrl"`
	MentorName          string `json:"mentorName"`
	MentorSignatureURL  string `json:"mentorSignatureUrl"`
	StudentName         string `json:"studentName"`
	StudentNIS          string `json:"studentNis"`
	StudentMajor        string `json:"studentMajor"`
	StudentGrade        string `json:"studentGrade"`
	SchoolName          string `json:"schoolName"`
	SchoolLogoURL       string `json:"schoolLogoUrl"`
	ProgramKeahlian     string `json:"programKeahlian"`
	KonsentrasiKeahlian string `json:"konsentrasiKeahlian"`
	BidangKeahlian      string `json:"bidangKeahlian"`
	AcademicYear        string `json:"academicYear"`
	Place               string `json:"place"`
}

// Value marshals form fields to JSON for persistence.
func (f FormFields) Value() (driver.Value, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal form fields: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into form fields.
func (f *FormFields) Scan(value interface{}) error {
	return scanJSON(value, f, "FormFields")
}

// FieldProvenance maps form field names to their source tag. Absent fields
// count as derived.
type FieldProvenance map[string]FieldSource

// IsManual reports whether the named field was edited by the user.
func (p FieldProvenance) IsManual(field string) bool {
	return p != nil && p[field] == SourceManual
}

// Value marshals the provenance map to JSON for persistence.
func (p FieldProvenance) Value() (driver.Value, error) {
	if p == nil {
		p = FieldProvenance{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal field provenance: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the provenance map.
func (p *FieldProvenance) Scan(value interface{}) error {
	return scanJSON(value, p, "FieldProvenance")
}

// ScoreInput is one (competency, score) pair sent by callers.
type ScoreInput struct {
	CompetencyTemplateID string  `json:"competency_template_id" validate:"required"`
	Score                float64 `json:"score" validate:"gte=0"`
}

// ScoreInputs is the in-progress score list kept on the wizard snapshot.
type ScoreInputs []ScoreInput

// Value marshals score inputs to JSON for persistence.
func (s ScoreInputs) Value() (driver.Value, error) {
	if s == nil {
		s = ScoreInputs{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal score inputs: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into score inputs.
func (s *ScoreInputs) Scan(value interface{}) error {
	return scanJSON(value, s, "ScoreInputs")
}

// WizardSnapshot persists the in-progress form state for one placement,
// keyed by placement so it outlives step navigation and page reloads.
type WizardSnapshot struct {
	ID            string          `db:"id" json:"id"`
	PlacementID   string          `db:"placement_id" json:"placement_id"`
	FinalReportID *string         `db:"final_report_id" json:"final_report_id,omitempty"`
	CurrentStep   int             `db:"current_step" json:"current_step"`
	Form          FormFields      `db:"form" json:"form"`
	Provenance    FieldProvenance `db:"provenance" json:"provenance"`
	Scores        ScoreInputs     `db:"scores" json:"scores"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// CertificatePreview is the advisory numbering shown while drafting. The
// sequence is recomputed at finalization and may differ.
type CertificatePreview struct {
	NextSequenceNumber int    `json:"next_sequence_number"`
	CompanyCode        string `json:"company_code"`
	Number             string `json:"number"`
}

// DraftView is the composed, not-yet-persisted final report shown before the
// first save.
type DraftView struct {
	PlacementID        string             `json:"placement_id"`
	ReportID           *string            `json:"report_id,omitempty"`
	CurrentStep        int                `json:"current_step"`
	Form               FormFields         `json:"form"`
	Provenance         FieldProvenance    `json:"provenance"`
	Scores             []DraftScore       `json:"scores"`
	CertificatePreview CertificatePreview `json:"certificate_preview"`
	StartDate          *time.Time         `json:"start_date,omitempty"`
	EndDate            *time.Time         `json:"end_date,omitempty"`
}

// DraftScore is one pre-filled score row: the sum of approved task
// submissions for the competency, overridable by the mentor.
type DraftScore struct {
	CompetencyTemplateID string             `json:"competency_template_id"`
	Name                 string             `json:"name"`
	Category             CompetencyCategory `json:"category"`
	Score                float64            `json:"score"`
}

func scanJSON(value interface{}, dest interface{}, what string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, what)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}
