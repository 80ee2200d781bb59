// Package feedback collects the weekly feedback students give on their pairing.
package feedback

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/pairing"
)

type (
	Feedback struct {
		ID          int         `json:"id" db:"id"`
		StudentID   int         `json:"student_id" db:"student_id"`
		StudentName string      `json:"student_name" db:"student_name"`
		PartnerName null.String `json:"partner_name" db:"-"` // partner of the student that week, if any
		Week        int         `json:"week_number" db:"week_number"`
		Text        string      `json:"feedback_text" db:"feedback_text"`
		CreatedAt   time.Time   `json:"submitted_at" db:"created_at"`
	}

	NewFeedback struct {
		Week int    `json:"week_number" validate:"required,min=1"`
		Text string `json:"feedback_text" validate:"required,notblank"`
	}

	// QueryFilter filters feedbacks; zero values are ignored.
	QueryFilter struct {
		StudentID int
		Week      int `query:"week"`
	}

	Repository interface {
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		// QueryFeedbacks returns the matching feedbacks with the names of their authors, latest first.
		QueryFeedbacks(ctx context.Context, filter QueryFilter) ([]Feedback, error)
	}

	ServiceInterface interface {
		Submit(ctx context.Context, studentID int, nf NewFeedback) (Feedback, error)
		Query(ctx context.Context, filter QueryFilter) ([]Feedback, error)
	}

	service struct {
		repo      Repository
		pairsRepo pairing.Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Text = core.CleanString(nf.Text)
	return validate.Struct(nf)
}

func NewService(repo Repository, pairsRepo pairing.Repository) ServiceInterface {
	return &service{repo: repo, pairsRepo: pairsRepo}
}

func (svc *service) Submit(ctx context.Context, studentID int, nf NewFeedback) (Feedback, error) {
	fb, err := svc.repo.CreateFeedback(ctx, Feedback{
		StudentID: studentID,
		Week:      nf.Week,
		Text:      nf.Text,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Feedback{}, errors.Wrap(err, "creating feedback")
	}
	fbs, err := svc.withPartners(ctx, []Feedback{fb})
	if err != nil {
		return Feedback{}, err
	}
	return fbs[0], nil
}

// Query returns the feedbacks along with the partner each student had during the week of the feedback.
func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Feedback, error) {
	fbs, err := svc.repo.QueryFeedbacks(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying feedbacks")
	}
	return svc.withPartners(ctx, fbs)
}

type weekStudent struct {
	week, studentID int
}

func (svc *service) withPartners(ctx context.Context, fbs []Feedback) ([]Feedback, error) {
	if len(fbs) == 0 {
		return fbs, nil
	}

	var filter pairing.RecordFilter
	if week := fbs[0].Week; allSameWeek(fbs, week) {
		filter.Week = week
	}
	records, err := svc.pairsRepo.QueryRecords(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying pairs")
	}

	partners := make(map[weekStudent]string, len(records)*2)
	for _, r := range records {
		partners[weekStudent{r.Week, r.Student1ID}] = r.Student2Name
		partners[weekStudent{r.Week, r.Student2ID}] = r.Student1Name
	}
	for i, fb := range fbs {
		if name, ok := partners[weekStudent{fb.Week, fb.StudentID}]; ok {
			fbs[i].PartnerName = null.StringFrom(name)
		}
	}
	return fbs, nil
}

func allSameWeek(fbs []Feedback, week int) bool {
	for _, fb := range fbs {
		if fb.Week != week {
			return false
		}
	}
	return true
}
