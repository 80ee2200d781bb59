package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
)

func createQuiz(t *testing.T, token string, body string) quiz.Quiz {
	t.Helper()
	rec := do(t, httpTest{method: http.MethodPost, path: "/v1/quiz", token: token, body: []byte(body), wantCode: http.StatusCreated})
	var qz quiz.Quiz
	unmarshal(t, rec, &qz)
	return qz
}

func addQuestion(t *testing.T, token string, quizID int, text, correct string) quiz.Question {
	t.Helper()
	body := `{"question_text": "` + text + `", "option1": "a", "option2": "b", "option3": "c", "option4": "d", "correct_answer": "` + correct + `"}`
	rec := do(t, httpTest{
		method: http.MethodPost, path: "/v1/quiz/" + strconv.Itoa(quizID) + "/questions", token: token,
		body: []byte(body), wantCode: http.StatusCreated,
	})
	var qn quiz.Question
	unmarshal(t, rec, &qn)
	return qn
}

func Test_quizApi_crud(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	mentorToken, aminaToken := getToken(t, mentor), getToken(t, amina)

	t.Run("create", func(t *testing.T) {
		tests := []httpTest{
			{name: "mentor required", token: aminaToken, body: []byte(`{"title": "Go"}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
			{
				name: "title required", token: mentorToken, body: []byte(`{"title": "  "}`), wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, map[string]string{"title": "this field is required"}),
			},
			{
				name: "invalid due date", token: mentorToken, body: []byte(`{"title": "Go", "due_date": "next week"}`), wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, map[string]string{"due_date": "invalid date, expected format YYYY-MM-DD"}),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method, tt.path = http.MethodPost, "/v1/quiz"
				do(t, tt)
			})
		}
	})

	qz := createQuiz(t, mentorToken, `{"title": " Go basics ", "description": "types & interfaces", "due_date": "2026-11-02"}`)
	assert.Equal(t, "Go basics", qz.Title)
	assert.Equal(t, quiz.DefaultTimeLimit, qz.TimeLimit)
	require.True(t, qz.DueDate.Valid)
	assert.Equal(t, "2026-11-02", qz.DueDate.Time.Format("2006-01-02"))

	path := "/v1/quiz/" + strconv.Itoa(qz.ID)
	qn := addQuestion(t, mentorToken, qz.ID, "What is a goroutine?", "a")

	t.Run("retrieve", func(t *testing.T) {
		var got quiz.Quiz

		rec := do(t, httpTest{path: path, token: mentorToken})
		unmarshal(t, rec, &got)
		require.Len(t, got.Questions, 1)
		assert.Equal(t, "a", got.Questions[0].CorrectAnswer)

		rec = do(t, httpTest{path: path, token: aminaToken})
		got = quiz.Quiz{}
		unmarshal(t, rec, &got)
		require.Len(t, got.Questions, 1)
		assert.Empty(t, got.Questions[0].CorrectAnswer, "hidden from students")

		do(t, httpTest{path: "/v1/quiz/999", token: aminaToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: quiz.ErrNotFound.Error()})})
		do(t, httpTest{path: "/v1/quiz/lol", token: aminaToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)})
	})

	t.Run("query", func(t *testing.T) {
		rec := do(t, httpTest{path: "/v1/quiz", token: aminaToken})
		var quizzes []quiz.Quiz
		unmarshal(t, rec, &quizzes)
		require.Len(t, quizzes, 1)
		assert.Equal(t, qz.ID, quizzes[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		do(t, httpTest{method: http.MethodPut, path: path, token: aminaToken, body: []byte(`{"title": "x"}`), wantCode: http.StatusForbidden})

		rec := do(t, httpTest{method: http.MethodPut, path: path, token: mentorToken, body: []byte(`{"time_limit": 45, "due_date": ""}`)})
		var got quiz.Quiz
		unmarshal(t, rec, &got)
		assert.Equal(t, "Go basics", got.Title)
		assert.Equal(t, 45, got.TimeLimit)
		assert.False(t, got.DueDate.Valid)

		do(t, httpTest{
			method: http.MethodPut, path: path, token: mentorToken, body: []byte(`{"time_limit": 0}`), wantCode: http.StatusBadRequest,
		})
	})

	t.Run("questions", func(t *testing.T) {
		qPath := path + "/questions/" + strconv.Itoa(qn.ID)

		rec := do(t, httpTest{method: http.MethodPut, path: qPath, token: mentorToken, body: []byte(`{"correct_answer": "b"}`)})
		var got quiz.Question
		unmarshal(t, rec, &got)
		assert.Equal(t, "b", got.CorrectAnswer)
		assert.Equal(t, qn.Text, got.Text)

		do(t, httpTest{method: http.MethodPut, path: path + "/questions/999", token: mentorToken, body: []byte(`{}`), wantCode: http.StatusNotFound})
		do(t, httpTest{method: http.MethodDelete, path: qPath, token: aminaToken, wantCode: http.StatusForbidden})
		do(t, httpTest{method: http.MethodDelete, path: qPath, token: mentorToken, wantCode: http.StatusNoContent})
		do(t, httpTest{method: http.MethodDelete, path: qPath, token: mentorToken, wantCode: http.StatusNotFound})
		do(t, httpTest{
			method: http.MethodPost, path: "/v1/quiz/999/questions", token: mentorToken, wantCode: http.StatusNotFound,
			body: []byte(`{"question_text": "?", "option1": "a", "option2": "b", "correct_answer": "a"}`),
		})
	})

	t.Run("delete", func(t *testing.T) {
		do(t, httpTest{method: http.MethodDelete, path: path, token: aminaToken, wantCode: http.StatusForbidden})
		do(t, httpTest{method: http.MethodDelete, path: path, token: mentorToken, wantCode: http.StatusNoContent})
		do(t, httpTest{path: path, token: mentorToken, wantCode: http.StatusNotFound})
	})
}

func Test_quizApi_submissions(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)
	mentorToken, aminaToken := getToken(t, mentor), getToken(t, amina)

	qz := createQuiz(t, mentorToken, `{"title": "Go basics"}`)
	q1 := addQuestion(t, mentorToken, qz.ID, "q1", "a")
	q2 := addQuestion(t, mentorToken, qz.ID, "q2", "b")
	q3 := addQuestion(t, mentorToken, qz.ID, "q3", "c")

	path := "/v1/quiz/" + strconv.Itoa(qz.ID)
	answers := func(pairs ...interface{}) []byte {
		m := make(map[string]interface{}, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			m[strconv.Itoa(pairs[i].(int))] = pairs[i+1]
		}
		return marshalObj(t, map[string]interface{}{"answers": m})
	}

	tests := []struct {
		name      string
		token     string
		path      string
		body      []byte
		wantCode  int
		wantScore float64
	}{
		{name: "student required", token: mentorToken, body: answers(q1.ID, "a"), wantCode: http.StatusForbidden},
		{name: "answers required", token: aminaToken, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "invalid question id", token: aminaToken, body: []byte(`{"answers": {"lol": "a"}}`), wantCode: http.StatusBadRequest},
		{name: "unknown quiz", token: aminaToken, path: "/v1/quiz/999/submit", body: answers(q1.ID, "a"), wantCode: http.StatusNotFound},
		{
			name: "two out of three", token: aminaToken, wantCode: http.StatusCreated, wantScore: 66.67,
			body: answers(q1.ID, "a", q2.ID, "b", q3.ID, "a", 999, "a"),
		},
		{name: "unanswered count as wrong", token: getToken(t, brian), body: answers(q3.ID, "c"), wantCode: http.StatusCreated, wantScore: 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == "" {
				tt.path = path + "/submit"
			}
			rec := do(t, httpTest{method: http.MethodPost, path: tt.path, token: tt.token, body: tt.body, wantCode: tt.wantCode})
			if rec.Code == http.StatusCreated {
				var res quiz.Result
				unmarshal(t, rec, &res)
				assert.Equal(t, tt.wantScore, res.Score)
				assert.Equal(t, qz.ID, res.QuizID)
			}
		})
	}

	t.Run("results", func(t *testing.T) {
		do(t, httpTest{path: path + "/results", token: aminaToken, wantCode: http.StatusForbidden})

		rec := do(t, httpTest{path: path + "/results", token: mentorToken})
		var results []quiz.Result
		unmarshal(t, rec, &results)
		require.Len(t, results, 2)
		assert.Equal(t, amina.Name, results[0].StudentName)
		assert.Equal(t, amina.Email, results[0].StudentEmail)
		assert.Equal(t, brian.Name, results[1].StudentName)
	})

	t.Run("own results", func(t *testing.T) {
		rec := do(t, httpTest{path: "/v1/student/results", token: aminaToken})
		var results []quiz.Result
		unmarshal(t, rec, &results)
		require.Len(t, results, 1)
		assert.Equal(t, 66.67, results[0].Score)
		assert.Empty(t, results[0].StudentName)
	})

	t.Run("own answers", func(t *testing.T) {
		rec := do(t, httpTest{path: path + "/answers", token: aminaToken})
		var got []quiz.Answer
		unmarshal(t, rec, &got)
		require.Len(t, got, 3, "unknown question ids are skipped")
		correct := map[int]bool{}
		for _, a := range got {
			correct[a.QuestionID] = a.IsCorrect
		}
		assert.Equal(t, map[int]bool{q1.ID: true, q2.ID: true, q3.ID: false}, correct)

		do(t, httpTest{path: path + "/answers", token: mentorToken, wantData: marshalList(t)})
	})
}
