package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

// PlacementRepository reads the placement subsystem's rows together with the
// student/company/mentor relations the draft composer copies from.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// FindDetail loads a placement with its joined relations. Missing relation
// fields come back nil and degrade to draft defaults downstream.
func (r *PlacementRepository) FindDetail(ctx context.Context, id string) (*models.PlacementDetail, error) {
	const query = `SELECT p.id, p.student_id, p.company_id, p.mentor_id, p.start_date, p.end_date, p.status, p.created_at,
        s.full_name AS student_name, s.nis AS student_nis, s.major AS student_major,
        s.school AS student_school, s.cohort AS student_cohort,
        c.name AS company_name, c.short_code AS company_short_code, c.logo_url AS company_logo_url,
        m.full_name AS mentor_name, m.user_id AS mentor_user_id, m.signature_url AS mentor_signature_url
        FROM placements p
        LEFT JOIN students s ON s.id = p.student_id
        LEFT JOIN companies c ON c.id = p.company_id
        LEFT JOIN mentors m ON m.id = p.mentor_id
        WHERE p.id = $1`
	var detail models.PlacementDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}
