package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/moringapair/backend/apps/api/echo"
	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/feedback"
	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
	emailsvc "github.com/moringapair/backend/services/email"
	locksvc "github.com/moringapair/backend/services/lock"
	logsvc "github.com/moringapair/backend/services/logger"
	metricsvc "github.com/moringapair/backend/services/metrics"
	schedulersvc "github.com/moringapair/backend/services/scheduler"
	"github.com/moringapair/backend/storage/database"
	inmemdb "github.com/moringapair/backend/storage/database/inmem"
	sqlxrepos "github.com/moringapair/backend/storage/database/sqlx"
)

// CloseFunc releases the storage resources.
type CloseFunc func() error

type Repositories struct {
	dig.Out

	Close       CloseFunc
	Users       user.Repository
	Preferences preference.Repository
	Roster      pairing.RosterRepository
	Pairs       pairing.Repository
	Quizzes     quiz.Repository
	Feedbacks   feedback.Repository
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(conf)
}

func newRepositories(conf *core.Config, logger core.Logger) (Repositories, error) {
	if conf.Database.Driver == database.DriverInMem {
		logger.Warn("running with the in-memory database: data is lost on shutdown")
		db := inmemdb.Open()
		prefRepo := inmemdb.NewPreferenceRepository(db)
		return Repositories{
			Close:       func() error { return nil },
			Users:       inmemdb.NewUserRepository(db),
			Preferences: prefRepo,
			Roster:      prefRepo,
			Pairs:       inmemdb.NewPairingRepository(db),
			Quizzes:     inmemdb.NewQuizRepository(db),
			Feedbacks:   inmemdb.NewFeedbackRepository(db),
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return Repositories{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return Repositories{}, errors.Wrap(err, "migrating database")
	}

	prefRepo := sqlxrepos.NewPreferenceRepository(db)
	return Repositories{
		Close:       db.Close,
		Users:       sqlxrepos.NewUserRepository(db),
		Preferences: prefRepo,
		Roster:      prefRepo,
		Pairs:       sqlxrepos.NewPairingRepository(db),
		Quizzes:     sqlxrepos.NewQuizRepository(db),
		Feedbacks:   sqlxrepos.NewFeedbackRepository(db),
	}, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newLocker holds the generation locks in redis when configured, in-process otherwise.
func newLocker(conf *core.Config, logger core.Logger) (pairing.Locker, error) {
	if conf.Redis.Address == "" {
		return locksvc.NewLocalLocker(), nil
	}
	client, err := locksvc.NewRedisClient(conf)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("pairing locks held in redis at %s", conf.Redis.Address))
	return locksvc.NewRedisLocker(client, logger), nil
}

func newMetrics() *metricsvc.Metrics {
	return metricsvc.New(prometheus.DefaultRegisterer)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

type pairingParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Repo       pairing.Repository
	RosterRepo pairing.RosterRepository
	Locker     pairing.Locker
	MailSvc    core.EmailService
	Metrics    *metricsvc.Metrics
}

func newPairingService(p pairingParams) pairing.ServiceInterface {
	return pairing.NewService(pairing.ServiceDeps{
		Repo:       p.Repo,
		RosterRepo: p.RosterRepo,
		Locker:     p.Locker,
		MailSvc:    p.MailSvc,
		Metrics:    p.Metrics,
		Logger:     p.Logger,
		Conf:       p.Conf,
	})
}

// newScheduler returns nil when no schedule is configured.
func newScheduler(conf *core.Config, pairsSvc pairing.ServiceInterface, logger core.Logger) (*schedulersvc.Scheduler, error) {
	if conf.Pairing.Schedule == "" {
		return nil, nil
	}
	return schedulersvc.New(conf.Pairing.Schedule, pairsSvc, logger)
}

type serverParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	UserSvc     user.ServiceInterface
	PrefSvc     preference.ServiceInterface
	PairsSvc    pairing.ServiceInterface
	QuizSvc     quiz.ServiceInterface
	FeedbackSvc feedback.ServiceInterface
	Metrics     *metricsvc.Metrics
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		PrefSvc:     p.PrefSvc,
		PairsSvc:    p.PairsSvc,
		QuizSvc:     p.QuizSvc,
		FeedbackSvc: p.FeedbackSvc,
		Metrics:     p.Metrics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newLocker))
	must(c.Provide(newMetrics))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(preference.NewService))
	must(c.Provide(newPairingService))
	must(c.Provide(quiz.NewService))
	must(c.Provide(feedback.NewService))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
