package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
)

// TaskScoreRepository aggregates the upstream task-review read model for the
// draft pre-fill. Only approved submissions count.
type TaskScoreRepository struct {
	db *sqlx.DB
}

// NewTaskScoreRepository constructs repository.
func NewTaskScoreRepository(db *sqlx.DB) *TaskScoreRepository {
	return &TaskScoreRepository{db: db}
}

// SumApprovedByStudent returns, per competency, the summed score of the
// student's approved task submissions.
func (r *TaskScoreRepository) SumApprovedByStudent(ctx context.Context, studentID string) (map[string]float64, error) {
	const query = `SELECT competency_template_id, COALESCE(SUM(score), 0) AS total
        FROM task_submissions
        WHERE student_id = $1 AND status = 'approved' AND competency_template_id IS NOT NULL
        GROUP BY competency_template_id`
	var rows []models.ApprovedTaskScore
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("sum approved task scores: %w", err)
	}
	sums := make(map[string]float64, len(rows))
	for _, row := range rows {
		sums[row.CompetencyTemplateID] = row.Total
	}
	return sums, nil
}
