package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, isMentor bool) error {
	ctx := context.Background()
	role := user.RoleStudent
	if isMentor {
		role = user.RoleMentor
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	switch {
	case err == nil:
		usr.Name = core.CleanString(name)
		usr.Role = role
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "updating user")
		}
		fmt.Fprintf(cli.out, "user %s updated (%s)\n", usr.Email, usr.Role)
		return nil

	case errors.Cause(err) != user.ErrNotFound:
		return err
	}

	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: role}
	if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	if usr, err = cli.usrSvc.Create(ctx, nu); err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Fprintf(cli.out, "user %s created (%s)\n", usr.Email, usr.Role)
	return nil
}
