package pairing

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Engine defaults
const (
	DefaultAttempts      = 10
	DefaultRepeatPenalty = 50.0
	DefaultJitter        = 2.0
)

// InsufficientRosterError is returned when fewer than 2 distinct students can be paired.
type InsufficientRosterError struct {
	Count int
}

func (err *InsufficientRosterError) Error() string {
	return fmt.Sprintf("need at least 2 students to create pairs, got %d", err.Count)
}

// Options of an Engine. nil (or zero Attempts) takes the default; a negative value too.
type Options struct {
	Attempts      int      // independent shuffled attempts; the best one wins
	RepeatPenalty *float64 // subtracted from the score of a historical pair
	Jitter        *float64 // amplitude of the uniform noise added to every score
}

// Engine builds weekly assignments with a multi-start stochastic greedy search.
//
// It is a heuristic: the maximum-weight matching is not guaranteed. Shuffling and jitter
// make successive runs differ on identical inputs, unless a seed is given.
type Engine struct {
	attempts      int
	repeatPenalty float64
	jitter        float64
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		attempts:      opts.Attempts,
		repeatPenalty: DefaultRepeatPenalty,
		jitter:        DefaultJitter,
	}
	if e.attempts <= 0 {
		e.attempts = DefaultAttempts
	}
	if p := opts.RepeatPenalty; p != nil && *p >= 0 {
		e.repeatPenalty = *p
	}
	if j := opts.Jitter; j != nil && *j >= 0 {
		e.jitter = *j
	}
	return e
}

// Compatibility is the symmetric preference score of a & b, without penalty nor jitter.
// unset attributes never match.
func Compatibility(a, b Student) float64 {
	if a.Profile == nil || b.Profile == nil {
		return 0
	}
	pa, pb := a.Profile, b.Profile
	match := func(x, y string) bool { return x != "" && x == y }

	var score float64
	if match(pa.LearningStyle, pb.LearningStyle) {
		score += 2
	}
	if match(pa.Pace, pb.Pace) {
		score += 2
	}
	if match(pa.Topic, pb.Topic) {
		score += 1
	}
	if match(pa.CollaborationStyle, pb.CollaborationStyle) {
		score += 1
	}
	return score
}

func (e *Engine) score(a, b Student, history History, rnd *rand.Rand) float64 {
	s := Compatibility(a, b)
	if history.Contains(a.ID, b.ID) {
		s -= e.repeatPenalty
	}
	return s + (rnd.Float64()*2-1)*e.jitter
}

// Generate builds the assignment of the given week.
// the roster is deduplicated by ID; history may be nil.
// when a seed is provided, the result only depends on (roster order, history, seed).
func (e *Engine) Generate(roster []Student, history History, week int, seed ...int64) (Assignment, error) {
	students := dedupe(roster)
	if len(students) < 2 {
		return Assignment{}, &InsufficientRosterError{Count: len(students)}
	}
	if history == nil {
		history = History{}
	}

	var rnd *rand.Rand
	if len(seed) > 0 {
		rnd = rand.New(rand.NewSource(seed[0]))
	} else {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	bestScore := math.Inf(-1)
	var best []Match
	for attempt := 0; attempt < e.attempts; attempt++ {
		matches, total := e.attempt(students, history, rnd)
		if total > bestScore {
			bestScore = total
			best = matches
		}
	}

	a := Assignment{Week: week, Matches: best, Score: bestScore}
	a.Unpaired = unpaired(students, best)
	return a, nil
}

// attempt shuffles the students, then greedily pairs the front student with its best remaining candidate.
func (e *Engine) attempt(students []Student, history History, rnd *rand.Rand) ([]Match, float64) {
	pool := make([]Student, len(students))
	copy(pool, students)
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	matches := make([]Match, 0, len(pool)/2)
	var total float64
	for len(pool) >= 2 {
		s := pool[0]
		pool = pool[1:]

		bestIdx := -1
		bestScore := math.Inf(-1)
		for idx, candidate := range pool {
			// strict: the first maximal candidate wins
			if sc := e.score(s, candidate, history, rnd); sc > bestScore {
				bestScore = sc
				bestIdx = idx
			}
		}

		matches = append(matches, Match{Student1: s, Student2: pool[bestIdx], Score: bestScore})
		total += bestScore
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}
	return matches, total
}

func dedupe(roster []Student) []Student {
	seen := make(map[int]struct{}, len(roster))
	students := make([]Student, 0, len(roster))
	for _, s := range roster {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		students = append(students, s)
	}
	return students
}

func unpaired(students []Student, matches []Match) *Student {
	paired := make(map[int]struct{}, len(matches)*2)
	for _, m := range matches {
		paired[m.Student1.ID] = struct{}{}
		paired[m.Student2.ID] = struct{}{}
	}
	for _, s := range students {
		if _, ok := paired[s.ID]; !ok {
			s := s
			return &s
		}
	}
	return nil
}

// CurrentPartner finds the partner of a student in the latest week of the records.
// ok is false when the student was the odd one out that week or was never paired;
// week is 0 when there are no records at all.
func CurrentPartner(studentID int, records []Record) (partner Record, week int, ok bool) {
	for _, r := range records {
		if r.Week > week {
			week = r.Week
		}
	}
	if week == 0 {
		return Record{}, 0, false
	}
	for _, r := range records {
		if r.Week == week && r.Pair().Has(studentID) {
			return r, week, true
		}
	}
	return Record{}, week, false
}
