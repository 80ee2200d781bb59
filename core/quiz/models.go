package quiz

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core"
)

const DefaultTimeLimit = 30 // minutes

type Quiz struct {
	ID          int         `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description null.String `json:"description" db:"description"`
	TimeLimit   int         `json:"time_limit" db:"time_limit"`
	DueDate     null.Time   `json:"due_date" db:"due_date"`
	Questions   []Question  `json:"questions,omitempty" db:"-"`
}

type Question struct {
	ID            int    `json:"id" db:"id"`
	QuizID        int    `json:"quiz_id" db:"quiz_id"`
	Text          string `json:"question_text" db:"question_text"`
	Option1       string `json:"option1" db:"option1"`
	Option2       string `json:"option2" db:"option2"`
	Option3       string `json:"option3" db:"option3"`
	Option4       string `json:"option4" db:"option4"`
	CorrectAnswer string `json:"correct_answer" db:"correct_answer"`
}

// Result is the graded submission of a student.
type Result struct {
	ID           int       `json:"id" db:"id"`
	StudentID    int       `json:"student_id" db:"student_id"`
	QuizID       int       `json:"quiz_id" db:"quiz_id"`
	Score        float64   `json:"score" db:"score"` // percentage of the quiz questions answered correctly
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`
	StudentName  string    `json:"student_name,omitempty" db:"student_name"`
	StudentEmail string    `json:"student_email,omitempty" db:"student_email"`
}

type Answer struct {
	ID             int       `json:"-" db:"id"`
	StudentID      int       `json:"-" db:"student_id"`
	QuizID         int       `json:"-" db:"quiz_id"`
	QuestionID     int       `json:"question_id" db:"question_id"`
	SelectedOption string    `json:"selected_option" db:"selected_option"`
	IsCorrect      bool      `json:"is_correct" db:"is_correct"`
	SubmittedAt    time.Time `json:"submitted_at" db:"submitted_at"`
}

// ResultFilter filters results; zero values are ignored.
type ResultFilter struct {
	QuizID    int
	StudentID int
}

type NewQuiz struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	TimeLimit   *int   `json:"time_limit" validate:"omitempty,min=1"`
	DueDate     string `json:"due_date" validate:"omitempty,isodate"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	return validate.Struct(nq)
}

// UpdateQuiz changes the provided fields only. an empty DueDate unsets it.
type UpdateQuiz struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	TimeLimit   *int    `json:"time_limit" validate:"omitempty,min=1"`
	DueDate     *string `json:"due_date" validate:"omitempty,isodate"`
}

func (uq *UpdateQuiz) Validate(validate *validator.Validate) error {
	return validate.Struct(uq)
}

type NewQuestion struct {
	Text          string `json:"question_text" validate:"required,notblank"`
	Option1       string `json:"option1" validate:"required"`
	Option2       string `json:"option2" validate:"required"`
	Option3       string `json:"option3"`
	Option4       string `json:"option4"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	return validate.Struct(nq)
}

type UpdateQuestion struct {
	Text          *string `json:"question_text" validate:"omitempty,notblank"`
	Option1       *string `json:"option1"`
	Option2       *string `json:"option2"`
	Option3       *string `json:"option3"`
	Option4       *string `json:"option4"`
	CorrectAnswer *string `json:"correct_answer" validate:"omitempty,notblank"`
}

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error {
	return validate.Struct(uq)
}

// Submission holds the answers of a student: {question_id: selected_option}.
type Submission struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// Parse returns the answers keyed by question ID.
func (s *Submission) Parse() (map[int]string, error) {
	answers := make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, core.NewValidationError(
				errors.Wrapf(err, "parsing question id %q", k),
				core.FieldError{Field: "answers", Error: "invalid question id: " + k},
			)
		}
		answers[id] = v
	}
	return answers, nil
}

func (s *Submission) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}
