// Package inmemdb implements the repositories in memory. Used by tests & the DEV server without database.
package inmemdb

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/feedback"
	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
)

// DB holds all the tables behind a single lock: repositories join across tables.
type DB struct {
	mutex sync.RWMutex
	seq   map[string]int

	users       map[int]*user.User
	preferences map[int]*preference.Preference // {user id: preference}
	pairs       []pairing.Record
	quizzes     map[int]*quiz.Quiz
	questions   map[int]*quiz.Question
	results     []quiz.Result
	answers     []quiz.Answer
	feedbacks   []feedback.Feedback
}

func Open() *DB {
	return &DB{
		seq:         make(map[string]int),
		users:       make(map[int]*user.User),
		preferences: make(map[int]*preference.Preference),
		quizzes:     make(map[int]*quiz.Quiz),
		questions:   make(map[int]*quiz.Question),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// Flush empties all the tables. Used in tests.
func (db *DB) Flush() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.seq = make(map[string]int)
	db.users = make(map[int]*user.User)
	db.preferences = make(map[int]*preference.Preference)
	db.pairs = nil
	db.quizzes = make(map[int]*quiz.Quiz)
	db.questions = make(map[int]*quiz.Question)
	db.results = nil
	db.answers = nil
	db.feedbacks = nil
}

func (db *DB) userName(id int) string {
	if usr, ok := db.users[id]; ok {
		return usr.Name
	}
	return ""
}

func errUnknownStudent(id int) error {
	return errors.Errorf("student %d does not exist", id)
}
