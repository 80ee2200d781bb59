package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/quiz"
	"github.com/moringapair/backend/core/user"
)

type (
	seedFile struct {
		// Password is used for the users without one.
		Password string     `yaml:"password"`
		Users    []seedUser `yaml:"users"`
		Quizzes  []seedQuiz `yaml:"quizzes"`
	}

	seedUser struct {
		Name        string           `yaml:"name"`
		Email       string           `yaml:"email"`
		Password    string           `yaml:"password"`
		Role        string           `yaml:"role"`
		Preferences *seedPreferences `yaml:"preferences"`
	}

	seedPreferences struct {
		LearningStyle      string `yaml:"learning_style"`
		CollaborationStyle string `yaml:"collaboration_style"`
		PreferredPace      string `yaml:"preferred_pace"`
		PreferredTopic     string `yaml:"preferred_topic"`
	}

	seedQuiz struct {
		Title       string         `yaml:"title"`
		Description string         `yaml:"description"`
		TimeLimit   *int           `yaml:"time_limit"`
		DueDate     string         `yaml:"due_date"`
		Questions   []seedQuestion `yaml:"questions"`
	}

	seedQuestion struct {
		Text          string   `yaml:"text"`
		Options       []string `yaml:"options"`
		CorrectAnswer string   `yaml:"answer"`
	}
)

func loadSeedFile(path string) (seedFile, error) {
	var sf seedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, errors.Wrap(err, "reading seed file")
	}
	if err = yaml.Unmarshal(data, &sf); err != nil {
		return sf, errors.Wrapf(err, "parsing %s", path)
	}
	return sf, nil
}

// seed creates the users of the file with their preferences, then its quizzes.
// users whose email is taken are skipped.
func (cli *commandLine) seed(path string) error {
	sf, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var created, skipped int
	for i, su := range sf.Users {
		nu := user.NewUser{Name: su.Name, Email: su.Email, Password: su.Password, Role: su.Role}
		if nu.Password == "" {
			nu.Password = sf.Password
		}
		switch err = cli.usrSvc.CheckEmailUniqueness(ctx, core.CleanString(nu.Email, true /* lower */)); err.(type) {
		case nil:
		case *core.ValidationError:
			skipped++
			continue
		default:
			return errors.Wrap(err, "checking email uniqueness")
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return errors.Wrapf(err, "users[%d] (%s)", i, su.Email)
		}

		usr, err := cli.usrSvc.Create(ctx, nu)
		if err != nil {
			return errors.Wrapf(err, "creating users[%d]", i)
		}
		if sp := su.Preferences; sp != nil {
			data := preference.SavePreference{
				LearningStyle:      sp.LearningStyle,
				CollaborationStyle: sp.CollaborationStyle,
				PreferredPace:      sp.PreferredPace,
				PreferredTopic:     sp.PreferredTopic,
			}
			if err = data.Validate(cli.validate); err != nil {
				return errors.Wrapf(err, "users[%d].preferences", i)
			}
			if _, _, err = cli.prefSvc.Save(ctx, usr.ID, data); err != nil {
				return errors.Wrapf(err, "saving users[%d].preferences", i)
			}
		}
		created++
	}
	fmt.Fprintf(cli.out, "users: %d created, %d skipped\n", created, skipped)

	for i, sq := range sf.Quizzes {
		nq := quiz.NewQuiz{Title: sq.Title, Description: sq.Description, TimeLimit: sq.TimeLimit, DueDate: sq.DueDate}
		if err = nq.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "quizzes[%d]", i)
		}
		qz, err := cli.quizSvc.Create(ctx, nq)
		if err != nil {
			return errors.Wrapf(err, "creating quizzes[%d]", i)
		}

		for j, sqn := range sq.Questions {
			opts := make([]string, 4)
			copy(opts, sqn.Options)
			nqn := quiz.NewQuestion{
				Text:          sqn.Text,
				Option1:       opts[0],
				Option2:       opts[1],
				Option3:       opts[2],
				Option4:       opts[3],
				CorrectAnswer: sqn.CorrectAnswer,
			}
			if err = nqn.Validate(cli.validate); err != nil {
				return errors.Wrapf(err, "quizzes[%d].questions[%d]", i, j)
			}
			if _, err = cli.quizSvc.AddQuestion(ctx, qz.ID, nqn); err != nil {
				return errors.Wrapf(err, "adding quizzes[%d].questions[%d]", i, j)
			}
		}
	}
	fmt.Fprintf(cli.out, "quizzes: %d created\n", len(sf.Quizzes))
	return nil
}
