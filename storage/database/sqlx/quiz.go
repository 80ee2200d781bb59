package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/storage/database"
)

const (
	quizColumns     = "id, title, description, time_limit, due_date"
	questionColumns = "id, quiz_id, question_text, option1, option2, option3, option4, correct_answer"
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	err := repo.db.GetContext(ctx, &q.ID,
		"INSERT INTO quizzes (title, description, time_limit, due_date) VALUES ($1, $2, $3, $4) RETURNING id",
		q.Title, q.Description, q.TimeLimit, q.DueDate,
	)
	q.Questions = nil
	return q, errors.Wrap(err, "inserting quiz")
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	quizzes := make([]quiz.Quiz, 0)
	if err := repo.db.SelectContext(ctx, &quizzes, "SELECT "+quizColumns+" FROM quizzes ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	return quizzes, nil
}

func (repo *quizRepository) questionsOf(ctx context.Context, quizID int) ([]quiz.Question, error) {
	questions := make([]quiz.Question, 0)
	err := repo.db.SelectContext(ctx, &questions,
		"SELECT "+questionColumns+" FROM quiz_questions WHERE quiz_id = $1 ORDER BY id", quizID,
	)
	return questions, errors.Wrap(err, "querying questions")
}

func (repo *quizRepository) GetQuizByID(ctx context.Context, id int) (quiz.Quiz, error) {
	var q quiz.Quiz
	err := repo.db.GetContext(ctx, &q, "SELECT "+quizColumns+" FROM quizzes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return quiz.Quiz{}, quiz.ErrNotFound
	} else if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "getting quiz")
	}
	q.Questions, err = repo.questionsOf(ctx, id)
	return q, err
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE quizzes SET title = $2, description = $3, time_limit = $4, due_date = $5 WHERE id = $1",
		q.ID, q.Title, q.Description, q.TimeLimit, q.DueDate,
	)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "updating quiz")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	q.Questions, err = repo.questionsOf(ctx, q.ID)
	return q, err
}

// DeleteQuiz relies on ON DELETE CASCADE for questions, results & answers.
func (repo *quizRepository) DeleteQuiz(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	query := `INSERT INTO quiz_questions (quiz_id, question_text, option1, option2, option3, option4, correct_answer)
		VALUES (:quiz_id, :question_text, :option1, :option2, :option3, :option4, :correct_answer) RETURNING id`
	query, args, err := repo.db.BindNamed(query, q)
	if err != nil {
		return quiz.Question{}, err
	}
	if err = repo.db.GetContext(ctx, &q.ID, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return quiz.Question{}, quiz.ErrNotFound
		}
		return quiz.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, quizID, id int) (quiz.Question, error) {
	var q quiz.Question
	err := repo.db.GetContext(ctx, &q,
		"SELECT "+questionColumns+" FROM quiz_questions WHERE id = $1 AND quiz_id = $2", id, quizID,
	)
	if err == sql.ErrNoRows {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return q, errors.Wrap(err, "getting question")
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	query := `UPDATE quiz_questions SET
			question_text = :question_text,
			option1 = :option1,
			option2 = :option2,
			option3 = :option3,
			option4 = :option4,
			correct_answer = :correct_answer
		WHERE id = :id AND quiz_id = :quiz_id`
	res, err := repo.db.NamedExecContext(ctx, query, q)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "updating question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return q, nil
}

func (repo *quizRepository) DeleteQuestion(ctx context.Context, quizID, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM quiz_questions WHERE id = $1 AND quiz_id = $2", id, quizID)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.ErrQuestionNotFound
	}
	return nil
}

// SaveSubmission stores the answers & the result in a single transaction.
func (repo *quizRepository) SaveSubmission(ctx context.Context, res quiz.Result, answers []quiz.Answer) (quiz.Result, error) {
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO answers
			(student_id, quiz_id, question_id, selected_option, is_correct, submitted_at)
			VALUES (:student_id, :quiz_id, :question_id, :selected_option, :is_correct, :submitted_at)`)
		if err != nil {
			return errors.Wrap(err, "preparing answer insert")
		}
		defer func() { _ = stmt.Close() }()

		for _, a := range answers {
			if _, err = stmt.ExecContext(ctx, a); err != nil {
				return errors.Wrapf(err, "inserting answer to question %d", a.QuestionID)
			}
		}

		err = tx.GetContext(ctx, &res.ID,
			"INSERT INTO quiz_results (student_id, quiz_id, score, submitted_at) VALUES ($1, $2, $3, $4) RETURNING id",
			res.StudentID, res.QuizID, res.Score, res.SubmittedAt,
		)
		return errors.Wrap(err, "inserting result")
	})
	if database.IsForeignKeyViolation(err) {
		return quiz.Result{}, quiz.ErrNotFound
	}
	if err != nil {
		return quiz.Result{}, err
	}
	return res, nil
}

func (repo *quizRepository) QueryResults(ctx context.Context, filter quiz.ResultFilter) ([]quiz.Result, error) {
	var w where
	if filter.QuizID != 0 {
		w.add("r.quiz_id = ?", filter.QuizID)
	}
	if filter.StudentID != 0 {
		w.add("r.student_id = ?", filter.StudentID)
	}

	q := `SELECT r.id, r.student_id, r.quiz_id, r.score, r.submitted_at, u.name AS student_name, u.email AS student_email
		FROM quiz_results r
		JOIN users u ON u.id = r.student_id` + w.String() + " ORDER BY r.id"

	results := make([]quiz.Result, 0)
	if err := repo.db.SelectContext(ctx, &results, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	if filter.QuizID == 0 {
		// the student's own results
		for i := range results {
			results[i].StudentName, results[i].StudentEmail = "", ""
		}
	}
	return results, nil
}

func (repo *quizRepository) QueryAnswers(ctx context.Context, studentID, quizID int) ([]quiz.Answer, error) {
	answers := make([]quiz.Answer, 0)
	err := repo.db.SelectContext(ctx, &answers,
		`SELECT id, student_id, quiz_id, question_id, selected_option, is_correct, submitted_at
		FROM answers WHERE student_id = $1 AND quiz_id = $2 ORDER BY id`,
		studentID, quizID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}
	return answers, nil
}
