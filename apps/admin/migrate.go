package main

import (
	"github.com/pkg/errors"

	"github.com/moringapair/backend/storage/database"
)

var migrateFunc = database.Migrate // mockable

var errNoDatabase = errors.New("no database configured")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}
