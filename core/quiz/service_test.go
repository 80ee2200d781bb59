package quiz

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moringapair/backend/core"
)

func TestGrade(t *testing.T) {
	questions := []Question{
		{ID: 1, CorrectAnswer: "a"},
		{ID: 2, CorrectAnswer: "b"},
		{ID: 3, CorrectAnswer: "c"},
	}

	tests := []struct {
		name      string
		questions []Question
		answers   map[int]string
		wantScore float64
		wantLen   int
	}{
		{name: "no questions", answers: map[int]string{1: "a"}, wantScore: 0, wantLen: 0},
		{name: "no answers", questions: questions, wantScore: 0, wantLen: 0},
		{name: "all correct", questions: questions, answers: map[int]string{1: "a", 2: "b", 3: "c"}, wantScore: 100, wantLen: 3},
		{name: "one of three", questions: questions, answers: map[int]string{1: "a", 2: "x"}, wantScore: 33.33, wantLen: 2},
		{name: "two of three", questions: questions, answers: map[int]string{1: "a", 2: "b", 3: "z"}, wantScore: 66.67, wantLen: 3},
		{name: "unknown questions skipped", questions: questions, answers: map[int]string{1: "a", 42: "a"}, wantScore: 33.33, wantLen: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graded, score := Grade(tt.questions, tt.answers)
			assert.Equal(t, tt.wantScore, score)
			assert.Len(t, graded, tt.wantLen)
			for _, ans := range graded {
				assert.Equal(t, tt.answers[ans.QuestionID] == questions[ans.QuestionID-1].CorrectAnswer, ans.IsCorrect)
			}
		})
	}
}

func TestSubmission_Parse(t *testing.T) {
	sub := Submission{Answers: map[string]string{"1": "a", "12": "b"}}
	answers, err := sub.Parse()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "a", 12: "b"}, answers)

	sub = Submission{Answers: map[string]string{"one": "a"}}
	_, err = sub.Parse()
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "answers", vErr.Fields[0].Field)
}

func TestQuizValidation(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	limit := 0
	empty := ""
	date := "2025-03-01T10:00:00Z"

	type validatable interface {
		Validate(*validator.Validate) error
	}
	tests := []struct {
		name    string
		data    validatable
		wantErr bool
	}{
		{name: "new quiz", data: &NewQuiz{Title: "Go basics", DueDate: "2025-03-01"}},
		{name: "new quiz without title", data: &NewQuiz{Title: "  "}, wantErr: true},
		{name: "new quiz with bad date", data: &NewQuiz{Title: "Go", DueDate: "01/03/2025"}, wantErr: true},
		{name: "new quiz with bad time limit", data: &NewQuiz{Title: "Go", TimeLimit: &limit}, wantErr: true},
		{name: "update unsets due date", data: &UpdateQuiz{DueDate: &empty}},
		{name: "update with iso datetime", data: &UpdateQuiz{DueDate: &date}},
		{name: "update blanks title", data: &UpdateQuiz{Title: &empty}, wantErr: true},
		{name: "question without answer", data: &NewQuestion{Text: "?", Option1: "a", Option2: "b"}, wantErr: true},
		{name: "question", data: &NewQuestion{Text: "?", Option1: "a", Option2: "b", CorrectAnswer: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := core.ParseDate("2025-03-01T23:59:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.Format("2006-01-02"))

	_, err = core.ParseDate("2025-02-30")
	assert.Error(t, err)
}
