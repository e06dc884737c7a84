package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

// CompetencyRepository reads the immutable competency catalog.
type CompetencyRepository struct {
	db *sqlx.DB
}

// NewCompetencyRepository constructs repository.
func NewCompetencyRepository(db *sqlx.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

// ListForTrack returns every template applicable to the given track:
// all-track rows plus rows scoped to the track, ordered by display position.
func (r *CompetencyRepository) ListForTrack(ctx context.Context, track string) ([]models.CompetencyTemplate, error) {
	const query = `SELECT id, name, category, track, position, created_at
        FROM competency_templates
        WHERE track = $1 OR track = $2
        ORDER BY position, id`
	var templates []models.CompetencyTemplate
	if err := r.db.SelectContext(ctx, &templates, query, models.TrackAll, track); err != nil {
		return nil, fmt.Errorf("list competency templates: %w", err)
	}
	return templates, nil
}
