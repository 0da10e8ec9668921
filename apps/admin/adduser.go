package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/user"
)

var errInvalidRole = errors.New("invalid role: must be one of admin, lecturer or student")

// addUser updates or creates an active, password-authenticated user.User
func (cli *commandLine) addUser(ctx context.Context, email, name string, role user.Role, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	role = user.Role(core.CleanString(string(role), true /* lower */))
	if !role.IsValid() {
		return errInvalidRole
	}

	name = core.CleanString(name)
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	exists := err == nil
	switch {
	case exists:
		ch, err := user.PasswordChanges(pwd)
		if err != nil {
			return err
		}
		active := true
		ch.Role, ch.Active = &role, &active
		if name != "" {
			ch.Name = &name
		}
		if usr, err = cli.usrRepo.UpdateUser(ctx, usr.ID, ch); err != nil {
			return err
		}
	case errors.Cause(err) != user.ErrNotFound:
		return err
	default:
		now := time.Now().UTC()
		usr = user.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         name,
			Role:         role,
			Active:       true,
			AuthProvider: user.ProviderPassword,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
	}
	action := "created"
	if exists {
		action = "updated"
	}
	fmt.Printf("%s %s (%s)\n", action, usr.Email, usr.Role)
	return nil
}
