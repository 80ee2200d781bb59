package inmemdb

import (
	"context"
	"sort"

	"github.com/moringapair/backend/core/feedback"
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[fb.StudentID]; !ok {
		return feedback.Feedback{}, errUnknownStudent(fb.StudentID)
	}
	fb.ID = repo.db.nextID("feedbacks")
	repo.db.feedbacks = append(repo.db.feedbacks, fb)
	fb.StudentName = repo.db.userName(fb.StudentID)
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedbacks(_ context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fbs := make([]feedback.Feedback, 0)
	for _, fb := range repo.db.feedbacks {
		if filter.StudentID != 0 && fb.StudentID != filter.StudentID {
			continue
		}
		if filter.Week != 0 && fb.Week != filter.Week {
			continue
		}
		fb.StudentName = repo.db.userName(fb.StudentID)
		fbs = append(fbs, fb)
	}
	// latest first
	sort.SliceStable(fbs, func(i, j int) bool { return fbs[i].ID > fbs[j].ID })
	return fbs, nil
}
