package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
	emailsvc "github.com/moringapair/backend/services/email"
	locksvc "github.com/moringapair/backend/services/lock"
	logsvc "github.com/moringapair/backend/services/logger"
	"github.com/moringapair/backend/storage/database"
	inmemdb "github.com/moringapair/backend/storage/database/inmem"
	sqlxrepos "github.com/moringapair/backend/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(conf)
	core.ParseEmailTemplates(logger)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	cli := commandLine{out: os.Stdout, validate: validate}

	// set up DB & repos
	var (
		prefRepo   preference.Repository
		rosterRepo pairing.RosterRepository
		pairsRepo  pairing.Repository
		quizRepo   quiz.Repository
	)
	if conf.Database.Driver == database.DriverInMem {
		db := inmemdb.Open()
		repo := inmemdb.NewPreferenceRepository(db)
		cli.usrRepo, prefRepo, rosterRepo = inmemdb.NewUserRepository(db), repo, repo
		pairsRepo, quizRepo = inmemdb.NewPairingRepository(db), inmemdb.NewQuizRepository(db)
	} else {
		errAndDie(database.CreateIfNotExist(conf))
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()

		cli.db = db.DB
		repo := sqlxrepos.NewPreferenceRepository(db)
		cli.usrRepo, prefRepo, rosterRepo = sqlxrepos.NewUserRepository(db), repo, repo
		pairsRepo, quizRepo = sqlxrepos.NewPairingRepository(db), sqlxrepos.NewQuizRepository(db)
	}

	// set up services
	locker, err := newLocker(conf)
	errAndDie(err)

	cli.usrSvc = user.NewService(cli.usrRepo)
	cli.prefSvc = preference.NewService(prefRepo)
	cli.quizSvc = quiz.NewService(quizRepo, logger)
	cli.pairsSvc = pairing.NewService(pairing.ServiceDeps{
		Repo:       pairsRepo,
		RosterRepo: rosterRepo,
		Locker:     locker,
		MailSvc:    newEmailService(conf),
		Logger:     logger,
		Conf:       conf,
	})

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newLocker(conf *core.Config) (pairing.Locker, error) {
	if conf.Redis.Address == "" {
		return locksvc.NewLocalLocker(), nil
	}
	client, err := locksvc.NewRedisClient(conf)
	if err != nil {
		return nil, err
	}
	return locksvc.NewRedisLocker(client, logger), nil
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
