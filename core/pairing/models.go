package pairing

import (
	"fmt"
	"time"
)

// Preference values
const (
	LearningVisual   = "visual"
	LearningAuditory = "auditory"
	LearningHandsOn  = "hands_on"

	CollabGroupWork       = "group_work"
	CollabPairProgramming = "pair_programming"
	CollabIndividualWork  = "individual_work"

	PaceFast   = "fast"
	PaceMedium = "medium"
	PaceSlow   = "slow"

	TopicFrontend    = "frontend"
	TopicBackend     = "backend"
	TopicFullstack   = "fullstack"
	TopicDevops      = "devops"
	TopicDatascience = "datascience"
)

// Pair record statuses
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Profile is a student's learning preference profile. An empty field is unset.
type Profile struct {
	LearningStyle      string `json:"learning_style,omitempty"`
	CollaborationStyle string `json:"collaboration_style,omitempty"`
	Pace               string `json:"preferred_pace,omitempty"`
	Topic              string `json:"preferred_topic,omitempty"`
}

// Student is a member of the roster. Only the ID & display name are serialized.
type Student struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"-"`
	Profile *Profile `json:"-"`
}

// Pair is an unordered pair of student IDs; A < B always holds once built with NewPair.
type Pair struct {
	A, B int
}

func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) Has(id int) bool { return p.A == id || p.B == id }

// Partner returns the other member of the pair.
func (p Pair) Partner(id int) (int, bool) {
	switch id {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	}
	return 0, false
}

func (p Pair) String() string { return fmt.Sprintf("(%d,%d)", p.A, p.B) }

// Match is a pair chosen by the engine, in the order it was formed.
type Match struct {
	Student1 Student `json:"student1"`
	Student2 Student `json:"student2"`
	Score    float64 `json:"score"`
}

func (m Match) Pair() Pair { return NewPair(m.Student1.ID, m.Student2.ID) }

// Assignment is the weekly pairing produced by the engine.
type Assignment struct {
	Week     int      `json:"week"`
	Matches  []Match  `json:"pairings"`
	Unpaired *Student `json:"unpaired"`
	Score    float64  `json:"score"`
}

func (a Assignment) Pairs() []Pair {
	pairs := make([]Pair, 0, len(a.Matches))
	for _, m := range a.Matches {
		pairs = append(pairs, m.Pair())
	}
	return pairs
}

// Record is a persisted pair of a given week.
type Record struct {
	ID           int       `json:"id" db:"id"`
	Student1ID   int       `json:"student1_id" db:"student1_id"`
	Student2ID   int       `json:"student2_id" db:"student2_id"`
	Student1Name string    `json:"student1" db:"student1_name"`
	Student2Name string    `json:"student2" db:"student2_name"`
	Week         int       `json:"week" db:"week_number"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (r Record) Pair() Pair { return NewPair(r.Student1ID, r.Student2ID) }

// RecordFilter filters persisted records. zero values are ignored.
type RecordFilter struct {
	Week   int
	Status string
}
