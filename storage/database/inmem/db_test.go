package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/feedback"
	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
)

func createUsers(t *testing.T, db *DB, users ...user.User) []user.User {
	repo := NewUserRepository(db)
	created := make([]user.User, 0, len(users))
	for _, usr := range users {
		u, err := repo.CreateUser(context.Background(), usr)
		require.NoError(t, err)
		created = append(created, u)
	}
	return created
}

func nullStr(s string) null.String { return null.StringFrom(s) }

func TestUserRepository_Uniqueness(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)
	ctx := context.Background()
	users := createUsers(t, db, user.User{Name: "Amina", Email: "amina@test.test", Role: user.RoleStudent})

	_, err := repo.CreateUser(ctx, user.User{Name: "Other", Email: "amina@test.test"})
	assert.Equal(t, user.ErrEmailExists, err)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "amina@test.test"))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "amina@test.test", users[0]))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "brian@test.test"))
}

func TestUserRepository_QueryUsers(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)
	createUsers(t, db,
		user.User{Name: "Chris", Email: "chris@test.test", Role: user.RoleStudent},
		user.User{Name: "Amina", Email: "amina@test.test", Role: user.RoleMentor},
		user.User{Name: "Brian", Email: "brian@test.test", Role: user.RoleStudent},
	)

	tests := []struct {
		name      string
		filter    *user.QueryFilter
		orderings []core.DBOrdering
		wantNames []string
	}{
		{name: "all", wantNames: []string{"Chris", "Amina", "Brian"}},
		{name: "students", filter: &user.QueryFilter{Roles: []string{user.RoleStudent}}, wantNames: []string{"Chris", "Brian"}},
		{name: "search", filter: &user.QueryFilter{Search: "BRI"}, wantNames: []string{"Brian"}},
		{name: "ordered by name", orderings: []core.DBOrdering{{Field: "name", Ascending: true}}, wantNames: []string{"Amina", "Brian", "Chris"}},
		{name: "ordered by -name", orderings: []core.DBOrdering{{Field: "name"}}, wantNames: []string{"Chris", "Brian", "Amina"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.QueryUsers(context.Background(), tt.filter, tt.orderings...)
			require.NoError(t, err)
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestPreferenceRepository_Roster(t *testing.T) {
	db := Open()
	repo := NewPreferenceRepository(db)
	ctx := context.Background()
	users := createUsers(t, db,
		user.User{Name: "Amina", Email: "amina@test.test", Role: user.RoleStudent},
		user.User{Name: "Mentor", Email: "tm@test.test", Role: user.RoleMentor},
		user.User{Name: "Brian", Email: "brian@test.test", Role: user.RoleStudent},
	)

	pref := preference.Preference{UserID: users[0].ID, LearningStyle: nullStr(pairing.LearningVisual)}
	saved, created, err := repo.UpsertPreference(ctx, pref)
	require.NoError(t, err)
	assert.True(t, created)

	pref.PreferredPace = nullStr(pairing.PaceFast)
	again, created, err := repo.UpsertPreference(ctx, pref)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, saved.ID, again.ID)

	_, _, err = repo.UpsertPreference(ctx, preference.Preference{UserID: 999})
	assert.Equal(t, user.ErrNotFound, err)

	roster, err := repo.QueryRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2, "mentors are not paired")
	assert.Equal(t, "Amina", roster[0].Name)
	require.NotNil(t, roster[0].Profile)
	assert.Equal(t, pairing.Profile{LearningStyle: pairing.LearningVisual, Pace: pairing.PaceFast}, *roster[0].Profile)
	assert.Nil(t, roster[1].Profile)

	require.NoError(t, repo.DeletePreferenceByUserID(ctx, users[0].ID))
	assert.Equal(t, preference.ErrNotFound, repo.DeletePreferenceByUserID(ctx, users[0].ID))
	_, err = repo.GetPreferenceByUserID(ctx, users[0].ID)
	assert.Equal(t, preference.ErrNotFound, err)
}

func TestPairingRepository_SaveAssignment(t *testing.T) {
	db := Open()
	repo := NewPairingRepository(db)
	ctx := context.Background()
	users := createUsers(t, db,
		user.User{Name: "Amina", Email: "amina@test.test", Role: user.RoleStudent},
		user.User{Name: "Brian", Email: "brian@test.test", Role: user.RoleStudent},
		user.User{Name: "Chris", Email: "chris@test.test", Role: user.RoleStudent},
	)
	a, b, c := users[0].ID, users[1].ID, users[2].ID

	_, err := repo.SaveAssignment(ctx, []pairing.Record{{Student1ID: a, Student2ID: b, Week: 1}}, false)
	require.NoError(t, err)

	// unknown student: nothing is saved nor archived
	_, err = repo.SaveAssignment(ctx, []pairing.Record{
		{Student1ID: a, Student2ID: c, Week: 2},
		{Student1ID: b, Student2ID: 999, Week: 2},
	}, true)
	require.Error(t, err)
	recs, _ := repo.QueryRecords(ctx, pairing.RecordFilter{})
	require.Len(t, recs, 1)
	assert.Equal(t, pairing.StatusActive, recs[0].Status)

	saved, err := repo.SaveAssignment(ctx, []pairing.Record{{Student1ID: c, Student2ID: a, Week: 2}}, true)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotZero(t, saved[0].ID)
	assert.False(t, saved[0].CreatedAt.IsZero())

	active, _ := repo.QueryRecords(ctx, pairing.RecordFilter{Status: pairing.StatusActive})
	require.Len(t, active, 1)
	assert.Equal(t, "Chris", active[0].Student1Name)
	assert.Equal(t, "Amina", active[0].Student2Name)

	archived, _ := repo.QueryRecords(ctx, pairing.RecordFilter{Status: pairing.StatusArchived})
	assert.Len(t, archived, 1)

	week, err := repo.MaxWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, week)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := Open()
	ctx := context.Background()
	users := createUsers(t, db,
		user.User{Name: "Amina", Email: "amina@test.test", Role: user.RoleStudent},
		user.User{Name: "Brian", Email: "brian@test.test", Role: user.RoleStudent},
	)
	a, b := users[0].ID, users[1].ID

	_, _, err := NewPreferenceRepository(db).UpsertPreference(ctx, preference.Preference{UserID: a})
	require.NoError(t, err)
	_, err = NewPairingRepository(db).SaveAssignment(ctx, []pairing.Record{{Student1ID: a, Student2ID: b, Week: 1}}, false)
	require.NoError(t, err)
	_, err = NewFeedbackRepository(db).CreateFeedback(ctx, feedback.Feedback{StudentID: a, Week: 1, Text: "ok"})
	require.NoError(t, err)
	quizRepo := NewQuizRepository(db)
	q, err := quizRepo.CreateQuiz(ctx, quiz.Quiz{Title: "Go"})
	require.NoError(t, err)
	_, err = quizRepo.SaveSubmission(ctx, quiz.Result{QuizID: q.ID, StudentID: a}, []quiz.Answer{{StudentID: a, QuizID: q.ID, QuestionID: 1}})
	require.NoError(t, err)

	require.NoError(t, NewUserRepository(db).DeleteUsersByID(ctx, a))

	assert.Empty(t, db.preferences)
	assert.Empty(t, db.pairs)
	assert.Empty(t, db.feedbacks)
	assert.Empty(t, db.results)
	assert.Empty(t, db.answers)
	assert.Len(t, db.users, 1)
}

func TestQuizRepository_DeleteQuiz(t *testing.T) {
	db := Open()
	repo := NewQuizRepository(db)
	ctx := context.Background()

	q, err := repo.CreateQuiz(ctx, quiz.Quiz{Title: "Go"})
	require.NoError(t, err)
	question, err := repo.CreateQuestion(ctx, quiz.Question{QuizID: q.ID, Text: "?", CorrectAnswer: "a"})
	require.NoError(t, err)

	got, err := repo.GetQuizByID(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)

	_, err = repo.GetQuestion(ctx, q.ID+1, question.ID)
	assert.Equal(t, quiz.ErrQuestionNotFound, err)

	require.NoError(t, repo.DeleteQuiz(ctx, q.ID))
	assert.Empty(t, db.questions)
	_, err = repo.GetQuizByID(ctx, q.ID)
	assert.Equal(t, quiz.ErrNotFound, err)
	assert.Equal(t, quiz.ErrNotFound, repo.DeleteQuiz(ctx, q.ID))
}
