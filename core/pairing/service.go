package pairing

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/moringapair/backend/core"
)

// generateLockKey guards the read history -> compute -> persist section of a generation.
const generateLockKey = "pairs:generate"

var ErrLockNotAcquired = errors.New("another pairing generation is in progress")

type (
	Repository interface {
		// QueryRecords returns the records matching the filter, with the names of both students.
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
		MaxWeek(ctx context.Context) (int, error)
		// SaveAssignment persists all records of the week or none.
		// when archiveActive is set, all currently active records are archived in the same unit of work.
		SaveAssignment(ctx context.Context, records []Record, archiveActive bool) ([]Record, error)
	}

	// RosterRepository provides the students eligible for pairing, with their preferences.
	RosterRepository interface {
		QueryRoster(ctx context.Context) ([]Student, error)
	}

	// Locker provides exclusive locks across the instances of the application.
	Locker interface {
		// Lock returns ErrLockNotAcquired if the lock is held elsewhere.
		Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
	}

	// Metrics observes generations.
	Metrics interface {
		ObserveGeneration(res Result, took time.Duration)
		ObserveFailure(reason string)
	}

	generator interface {
		Generate(roster []Student, history History, week int, seed ...int64) (Assignment, error)
	}

	ServiceInterface interface {
		GenerateNextWeek(ctx context.Context, seed *int64) (Result, error)
		List(ctx context.Context, week int) ([]Record, error)
		Current(ctx context.Context, studentID int) (Current, error)
		Roster(ctx context.Context) ([]Student, error)
	}

	ServiceDeps struct {
		Repo       Repository
		RosterRepo RosterRepository
		Locker     Locker
		MailSvc    core.EmailService // optional
		Metrics    Metrics           // optional
		Logger     core.Logger
		Conf       *core.Config
	}

	service struct {
		repo       Repository
		rosterRepo RosterRepository
		locker     Locker
		mailSvc    core.EmailService
		metrics    Metrics
		logger     core.Logger
		engine     generator
		lockTTL    time.Duration
		notify     bool
	}

	// Result of a generation.
	Result struct {
		Assignment
		Records      []Record `json:"-"`
		HistoryReset bool     `json:"history_reset"`
	}

	// Current is the latest pairing of a student.
	Current struct {
		Week      *int    `json:"week"`
		PartnerID *int    `json:"partner_id"`
		Partner   *string `json:"partner"`
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(deps ServiceDeps) ServiceInterface {
	svc := &service{
		repo:       deps.Repo,
		rosterRepo: deps.RosterRepo,
		locker:     deps.Locker,
		mailSvc:    deps.MailSvc,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		engine:     NewEngine(Options{}),
		lockTTL:    30 * time.Second,
	}
	if svc.logger == nil {
		svc.logger = core.NewNopLogger()
	}
	if conf := deps.Conf; conf != nil {
		svc.engine = NewEngine(Options{
			Attempts:      conf.Pairing.Attempts,
			RepeatPenalty: conf.Pairing.RepeatPenalty,
			Jitter:        conf.Pairing.Jitter,
		})
		if conf.Pairing.LockTTL > 0 {
			svc.lockTTL = conf.Pairing.LockTTL
		}
		svc.notify = conf.Pairing.NotifyByEmail
	}
	return svc
}

// GenerateNextWeek pairs the current roster for the week following the last persisted one.
//
// History reset: when no novel pair can be formed for the roster, or when the winning
// assignment only repeats past pairs, the history is cleared and the engine runs once more.
// the previously active records are then archived along with the save.
func (svc *service) GenerateNextWeek(ctx context.Context, seed *int64) (Result, error) {
	start := time.Now()

	roster, err := svc.rosterRepo.QueryRoster(ctx)
	if err != nil {
		svc.observeFailure("roster")
		return Result{}, errors.Wrap(err, "querying roster")
	}
	if len(dedupe(roster)) < 2 {
		svc.observeFailure("insufficient_roster")
		return Result{}, &InsufficientRosterError{Count: len(dedupe(roster))}
	}

	unlock, err := svc.locker.Lock(ctx, generateLockKey, svc.lockTTL)
	if err != nil {
		svc.observeFailure("lock")
		if errors.Cause(err) == ErrLockNotAcquired {
			return Result{}, ErrLockNotAcquired
		}
		return Result{}, errors.Wrap(err, "acquiring generation lock")
	}
	defer unlock()

	maxWeek, err := svc.repo.MaxWeek(ctx)
	if err != nil {
		svc.observeFailure("history")
		return Result{}, errors.Wrap(err, "getting current week")
	}
	week := maxWeek + 1

	active, err := svc.repo.QueryRecords(ctx, RecordFilter{Status: StatusActive})
	if err != nil {
		svc.observeFailure("history")
		return Result{}, errors.Wrap(err, "querying pairing history")
	}
	history := HistoryFromRecords(active)

	var reset bool
	if history.CoversAll(roster) {
		svc.logger.Info(fmt.Sprintf("no novel pair possible for week %d: resetting pairing history", week))
		history, reset = History{}, true
	}

	asgmt, err := svc.generate(roster, history, week, seed)
	if err != nil {
		return Result{}, err
	}
	if !reset && history.AllHistorical(asgmt) {
		svc.logger.Info(fmt.Sprintf("week %d only repeats past pairs: resetting pairing history", week))
		reset = true
		if asgmt, err = svc.generate(roster, History{}, week, seed); err != nil {
			return Result{}, err
		}
	}

	records := make([]Record, 0, len(asgmt.Matches))
	for _, m := range asgmt.Matches {
		records = append(records, Record{
			Student1ID:   m.Student1.ID,
			Student2ID:   m.Student2.ID,
			Student1Name: m.Student1.Name,
			Student2Name: m.Student2.Name,
			Week:         week,
			Status:       StatusActive,
		})
	}
	if records, err = svc.repo.SaveAssignment(ctx, records, reset && len(active) > 0); err != nil {
		svc.observeFailure("save")
		return Result{}, errors.Wrap(err, "saving assignment")
	}

	res := Result{Assignment: asgmt, Records: records, HistoryReset: reset}
	unpaired := "none"
	if res.Unpaired != nil {
		unpaired = res.Unpaired.Name
	}
	svc.logger.Info(fmt.Sprintf("generated %d pairs for week %d (unpaired: %s)", len(res.Matches), week, unpaired))

	if svc.metrics != nil {
		svc.metrics.ObserveGeneration(res, time.Since(start))
	}
	if svc.notify && svc.mailSvc != nil {
		svc.mailSvc.SendMessages(assignmentMessages(res.Assignment)...)
	}
	return res, nil
}

func (svc *service) generate(roster []Student, history History, week int, seed *int64) (Assignment, error) {
	var asgmt Assignment
	var err error
	if seed != nil {
		asgmt, err = svc.engine.Generate(roster, history, week, *seed)
	} else {
		asgmt, err = svc.engine.Generate(roster, history, week)
	}
	if err != nil {
		svc.observeFailure("generate")
		return Assignment{}, errors.Wrap(err, "generating assignment")
	}
	return asgmt, nil
}

func (svc *service) observeFailure(reason string) {
	if svc.metrics != nil {
		svc.metrics.ObserveFailure(reason)
	}
}

func (svc *service) List(ctx context.Context, week int) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, RecordFilter{Week: week})
}

func (svc *service) Current(ctx context.Context, studentID int) (Current, error) {
	maxWeek, err := svc.repo.MaxWeek(ctx)
	if err != nil {
		return Current{}, errors.Wrap(err, "getting current week")
	}
	if maxWeek == 0 {
		return Current{}, nil
	}
	records, err := svc.repo.QueryRecords(ctx, RecordFilter{Week: maxWeek})
	if err != nil {
		return Current{}, errors.Wrap(err, "querying current week pairs")
	}

	rec, week, ok := CurrentPartner(studentID, records)
	cur := Current{Week: &week}
	if ok {
		partnerID, _ := rec.Pair().Partner(studentID)
		name := rec.Student2Name
		if rec.Student2ID == studentID {
			name = rec.Student1Name
		}
		cur.PartnerID = &partnerID
		cur.Partner = &name
	}
	return cur, nil
}

func (svc *service) Roster(ctx context.Context) ([]Student, error) {
	return svc.rosterRepo.QueryRoster(ctx)
}

// PairingNotice is the data of the "pairing_assigned" email template.
type PairingNotice struct {
	Week        int
	StudentName string
	PartnerName string // empty for the unpaired student
}

func assignmentMessages(a Assignment) []*core.EmailMessage {
	newMsg := func(to Student, partner string) *core.EmailMessage {
		return &core.EmailMessage{
			To:           []mail.Address{{Name: to.Name, Address: to.Email}},
			Subject:      fmt.Sprintf("Your pair for week %d", a.Week),
			TemplateName: "pairing_assigned",
			TemplateData: PairingNotice{Week: a.Week, StudentName: to.Name, PartnerName: partner},
		}
	}

	msgs := make([]*core.EmailMessage, 0, len(a.Matches)*2+1)
	for _, m := range a.Matches {
		if m.Student1.Email != "" {
			msgs = append(msgs, newMsg(m.Student1, m.Student2.Name))
		}
		if m.Student2.Email != "" {
			msgs = append(msgs, newMsg(m.Student2, m.Student1.Name))
		}
	}
	if a.Unpaired != nil && a.Unpaired.Email != "" {
		msgs = append(msgs, newMsg(*a.Unpaired, ""))
	}
	return msgs
}
