package main

import (
	"context"
	"time"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	ch, err := user.PasswordChanges(pwd)
	if err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr.ID, ch)
	return err
}

func (cli *commandLine) setRole(ctx context.Context, email string, role user.Role) error {
	role = user.Role(core.CleanString(string(role), true /* lower */))
	if !role.IsValid() {
		return errInvalidRole
	}
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr.ID, user.Changes{Role: &role, UpdatedAt: time.Now().UTC()})
	return err
}
