package inmemdb

import (
	"context"
	"sort"

	"github.com/moringapair/backend/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) questionsOf(quizID int) []quiz.Question {
	questions := make([]quiz.Question, 0)
	for _, q := range repo.db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}

func (repo *quizRepository) CreateQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q.ID = repo.db.nextID("quizzes")
	q.Questions = nil
	repo.db.quizzes[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) QueryQuizzes(context.Context) ([]quiz.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.db.quizzes))
	for _, q := range repo.db.quizzes {
		quizzes = append(quizzes, *q)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

func (repo *quizRepository) GetQuizByID(_ context.Context, id int) (quiz.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	q, ok := repo.db.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	res := *q
	res.Questions = repo.questionsOf(id)
	return res, nil
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.quizzes[q.ID]; !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	stored := q
	stored.Questions = nil
	repo.db.quizzes[q.ID] = &stored
	q.Questions = repo.questionsOf(q.ID)
	return q, nil
}

func (repo *quizRepository) DeleteQuiz(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.quizzes[id]; !ok {
		return quiz.ErrNotFound
	}
	delete(repo.db.quizzes, id)
	for qid, q := range repo.db.questions {
		if q.QuizID == id {
			delete(repo.db.questions, qid)
		}
	}

	results := repo.db.results[:0]
	for _, r := range repo.db.results {
		if r.QuizID != id {
			results = append(results, r)
		}
	}
	repo.db.results = results

	answers := repo.db.answers[:0]
	for _, a := range repo.db.answers {
		if a.QuizID != id {
			answers = append(answers, a)
		}
	}
	repo.db.answers = answers
	return nil
}

func (repo *quizRepository) CreateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.quizzes[q.QuizID]; !ok {
		return quiz.Question{}, quiz.ErrNotFound
	}
	q.ID = repo.db.nextID("quiz_questions")
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) GetQuestion(_ context.Context, quizID, id int) (quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.questions[id]; ok && q.QuizID == quizID {
		return *q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) UpdateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.questions[q.ID]; !ok || orig.QuizID != q.QuizID {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) DeleteQuestion(_ context.Context, quizID, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if q, ok := repo.db.questions[id]; !ok || q.QuizID != quizID {
		return quiz.ErrQuestionNotFound
	}
	delete(repo.db.questions, id)

	answers := repo.db.answers[:0]
	for _, a := range repo.db.answers {
		if a.QuestionID != id {
			answers = append(answers, a)
		}
	}
	repo.db.answers = answers
	return nil
}

func (repo *quizRepository) SaveSubmission(_ context.Context, res quiz.Result, answers []quiz.Answer) (quiz.Result, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.quizzes[res.QuizID]; !ok {
		return quiz.Result{}, quiz.ErrNotFound
	}
	if _, ok := repo.db.users[res.StudentID]; !ok {
		return quiz.Result{}, errUnknownStudent(res.StudentID)
	}
	for _, a := range answers {
		a.ID = repo.db.nextID("answers")
		repo.db.answers = append(repo.db.answers, a)
	}
	res.ID = repo.db.nextID("quiz_results")
	repo.db.results = append(repo.db.results, res)
	return res, nil
}

func (repo *quizRepository) QueryResults(_ context.Context, filter quiz.ResultFilter) ([]quiz.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]quiz.Result, 0)
	for _, r := range repo.db.results {
		if filter.QuizID != 0 && r.QuizID != filter.QuizID {
			continue
		}
		if filter.StudentID != 0 && r.StudentID != filter.StudentID {
			continue
		}
		if filter.QuizID != 0 {
			if usr, ok := repo.db.users[r.StudentID]; ok {
				r.StudentName = usr.Name
				r.StudentEmail = usr.Email
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (repo *quizRepository) QueryAnswers(_ context.Context, studentID, quizID int) ([]quiz.Answer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	answers := make([]quiz.Answer, 0)
	for _, a := range repo.db.answers {
		if a.StudentID == studentID && a.QuizID == quizID {
			answers = append(answers, a)
		}
	}
	return answers, nil
}
