package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/feedback"
)

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	q := `WITH fb AS (
			INSERT INTO feedbacks (student_id, week_number, feedback_text, created_at)
			VALUES ($1, $2, $3, $4) RETURNING id, student_id
		)
		SELECT fb.id, u.name FROM fb JOIN users u ON u.id = fb.student_id`

	err := repo.db.QueryRowxContext(ctx, q, fb.StudentID, fb.Week, fb.Text, fb.CreatedAt).Scan(&fb.ID, &fb.StudentName)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedbacks(ctx context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	var w where
	if filter.StudentID != 0 {
		w.add("f.student_id = ?", filter.StudentID)
	}
	if filter.Week != 0 {
		w.add("f.week_number = ?", filter.Week)
	}

	q := `SELECT f.id, f.student_id, f.week_number, f.feedback_text, f.created_at, u.name AS student_name
		FROM feedbacks f
		JOIN users u ON u.id = f.student_id` + w.String() + " ORDER BY f.id DESC"

	fbs := make([]feedback.Feedback, 0)
	if err := repo.db.SelectContext(ctx, &fbs, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying feedbacks")
	}
	return fbs, nil
}
