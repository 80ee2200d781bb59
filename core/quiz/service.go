package quiz

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core"
)

var (
	// errors
	ErrNotFound         = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		QueryQuizzes(ctx context.Context) ([]Quiz, error)
		// GetQuizByID returns the quiz with its questions.
		GetQuizByID(ctx context.Context, id int) (Quiz, error)
		UpdateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		// DeleteQuiz deletes the quiz along with its questions, results & answers.
		DeleteQuiz(ctx context.Context, id int) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestion(ctx context.Context, quizID, id int) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, quizID, id int) error

		// SaveSubmission persists the result & its answers atomically.
		SaveSubmission(ctx context.Context, res Result, answers []Answer) (Result, error)
		QueryResults(ctx context.Context, filter ResultFilter) ([]Result, error)
		QueryAnswers(ctx context.Context, studentID, quizID int) ([]Answer, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nq NewQuiz) (Quiz, error)
		Query(ctx context.Context) ([]Quiz, error)
		Get(ctx context.Context, id int) (Quiz, error)
		Update(ctx context.Context, id int, uq UpdateQuiz) (Quiz, error)
		Delete(ctx context.Context, id int) error

		AddQuestion(ctx context.Context, quizID int, nq NewQuestion) (Question, error)
		UpdateQuestion(ctx context.Context, quizID, id int, uq UpdateQuestion) (Question, error)
		DeleteQuestion(ctx context.Context, quizID, id int) error

		Submit(ctx context.Context, quizID, studentID int, answers map[int]string) (Result, error)
		QueryResults(ctx context.Context, quizID int) ([]Result, error)
		QueryStudentResults(ctx context.Context, studentID int) ([]Result, error)
		QueryStudentAnswers(ctx context.Context, studentID, quizID int) ([]Answer, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, logger core.Logger) ServiceInterface {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &service{repo: repo, logger: logger}
}

func (svc *service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	q := Quiz{
		Title:       nq.Title,
		Description: null.NewString(nq.Description, nq.Description != ""),
		TimeLimit:   DefaultTimeLimit,
	}
	if nq.TimeLimit != nil {
		q.TimeLimit = *nq.TimeLimit
	}
	if nq.DueDate != "" {
		due, err := core.ParseDate(nq.DueDate)
		if err != nil {
			return Quiz{}, dueDateError(err)
		}
		q.DueDate = null.TimeFrom(due)
	}
	return svc.repo.CreateQuiz(ctx, q)
}

func (svc *service) Query(ctx context.Context) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx)
}

func (svc *service) Get(ctx context.Context, id int) (Quiz, error) {
	return svc.repo.GetQuizByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, uq UpdateQuiz) (Quiz, error) {
	q, err := svc.repo.GetQuizByID(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if uq.Title != nil {
		q.Title = core.CleanString(*uq.Title)
	}
	if uq.Description != nil {
		desc := core.CleanString(*uq.Description)
		q.Description = null.NewString(desc, desc != "")
	}
	if uq.TimeLimit != nil {
		q.TimeLimit = *uq.TimeLimit
	}
	if uq.DueDate != nil {
		if *uq.DueDate == "" {
			q.DueDate = null.Time{}
		} else {
			due, err := core.ParseDate(*uq.DueDate)
			if err != nil {
				return Quiz{}, dueDateError(err)
			}
			q.DueDate = null.TimeFrom(due)
		}
	}
	return svc.repo.UpdateQuiz(ctx, q)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteQuiz(ctx, id)
}

func (svc *service) AddQuestion(ctx context.Context, quizID int, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuizByID(ctx, quizID); err != nil {
		return Question{}, err
	}
	return svc.repo.CreateQuestion(ctx, Question{
		QuizID:        quizID,
		Text:          nq.Text,
		Option1:       nq.Option1,
		Option2:       nq.Option2,
		Option3:       nq.Option3,
		Option4:       nq.Option4,
		CorrectAnswer: nq.CorrectAnswer,
	})
}

func (svc *service) UpdateQuestion(ctx context.Context, quizID, id int, uq UpdateQuestion) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, quizID, id)
	if err != nil {
		return Question{}, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&q.Text, uq.Text)
	set(&q.Option1, uq.Option1)
	set(&q.Option2, uq.Option2)
	set(&q.Option3, uq.Option3)
	set(&q.Option4, uq.Option4)
	set(&q.CorrectAnswer, uq.CorrectAnswer)
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *service) DeleteQuestion(ctx context.Context, quizID, id int) error {
	return svc.repo.DeleteQuestion(ctx, quizID, id)
}

// Submit grades the answers against the quiz questions; unknown question ids are skipped.
func (svc *service) Submit(ctx context.Context, quizID, studentID int, answers map[int]string) (Result, error) {
	q, err := svc.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	graded, score := Grade(q.Questions, answers)
	for i := range graded {
		graded[i].StudentID = studentID
		graded[i].QuizID = quizID
		graded[i].SubmittedAt = now
	}
	res := Result{StudentID: studentID, QuizID: quizID, Score: score, SubmittedAt: now}

	res, err = svc.repo.SaveSubmission(ctx, res, graded)
	if err != nil {
		return Result{}, errors.Wrap(err, "saving submission")
	}
	return res, nil
}

func (svc *service) QueryResults(ctx context.Context, quizID int) ([]Result, error) {
	if _, err := svc.repo.GetQuizByID(ctx, quizID); err != nil {
		return nil, err
	}
	return svc.repo.QueryResults(ctx, ResultFilter{QuizID: quizID})
}

func (svc *service) QueryStudentResults(ctx context.Context, studentID int) ([]Result, error) {
	return svc.repo.QueryResults(ctx, ResultFilter{StudentID: studentID})
}

func (svc *service) QueryStudentAnswers(ctx context.Context, studentID, quizID int) ([]Answer, error) {
	return svc.repo.QueryAnswers(ctx, studentID, quizID)
}

// Grade checks every answer against its question, in question order.
// the score is the percentage of the questions answered correctly, rounded to 2 decimals; 0 without questions.
func Grade(questions []Question, answers map[int]string) ([]Answer, float64) {
	graded := make([]Answer, 0, len(answers))
	var correct int
	for _, q := range questions {
		selected, ok := answers[q.ID]
		if !ok {
			continue
		}
		ans := Answer{QuestionID: q.ID, SelectedOption: selected, IsCorrect: selected == q.CorrectAnswer}
		if ans.IsCorrect {
			correct++
		}
		graded = append(graded, ans)
	}
	if len(questions) == 0 {
		return graded, 0
	}
	score := float64(correct) * 100 / float64(len(questions))
	return graded, math.Round(score*100) / 100
}

func dueDateError(err error) error {
	return core.NewValidationError(errors.Wrap(err, "parsing due date"), core.FieldError{Field: "due_date", Error: "invalid date, expected format YYYY-MM-DD"})
}
