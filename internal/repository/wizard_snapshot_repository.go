package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

// WizardSnapshotRepository persists the in-progress wizard form per
// placement. One snapshot per placement, last write wins.
type WizardSnapshotRepository struct {
	db *sqlx.DB
}

// NewWizardSnapshotRepository constructs repository.
func NewWizardSnapshotRepository(db *sqlx.DB) *WizardSnapshotRepository {
	return &WizardSnapshotRepository{db: db}
}

// FindByPlacement returns the snapshot for a placement or sql.ErrNoRows.
func (r *WizardSnapshotRepository) FindByPlacement(ctx context.Context, placementID string) (*models.WizardSnapshot, error) {
	const query = `SELECT id, placement_id, final_report_id, current_step, form, provenance, scores, updated_at
        FROM wizard_snapshots WHERE placement_id = $1`
	var snapshot models.WizardSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, placementID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Upsert writes the full snapshot, creating it on first save. The whole form
// shape is stored verbatim every time, so step order never loses data.
func (r *WizardSnapshotRepository) Upsert(ctx context.Context, snapshot *models.WizardSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	snapshot.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO wizard_snapshots (id, placement_id, final_report_id, current_step, form, provenance, scores, updated_at)
        VALUES (:id, :placement_id, :final_report_id, :current_step, :form, :provenance, :scores, :updated_at)
        ON CONFLICT (placement_id)
        DO UPDATE SET final_report_id = EXCLUDED.final_report_id, current_step = EXCLUDED.current_step,
            form = EXCLUDED.form, provenance = EXCLUDED.provenance, scores = EXCLUDED.scores, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("upsert wizard snapshot: %w", err)
	}
	return nil
}
