package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/user"
	inmemdb "github.com/hsuniversity/classroom/storage/database/inmem"
	testutil "github.com/hsuniversity/classroom/tests"
)

var usrRepo user.Repository

type indexerMock struct {
	calls int
	err   error
}

func (m *indexerMock) EnsureIndexes(context.Context) error {
	m.calls++
	return m.err
}

func setup(t *testing.T) (*commandLine, *indexerMock) {
	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	idx := new(indexerMock)

	// start CLI
	return &commandLine{
		usrRepo: usrRepo,
		db:      idx,
	}, idx
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkRunErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "setrole: no role", args: []string{"setrole", "-email", "awe@test.cd"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)
	existing := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.cd", "Pa55word!", user.RoleStudent, false)

	tests := []cliTest{
		{name: "no password", args: []string{"adduser", "-email", "root@test.cd"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-email", "root@test.cd", "-role", "dean"}, extra: extra{pwd: "s3cr3t!"}, wantErr: errInvalidRole},
		{name: "create admin", args: []string{"adduser", "-email", " Root@Test.cd ", "-name", "Root"}, extra: extra{pwd: "s3cr3t!"}},
		{name: "update existing", args: []string{"adduser", "-email", "awe@test.cd", "-role", "lecturer"}, extra: extra{pwd: "n3wpwd!"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}

	ctx := context.Background()
	root, err := usrRepo.GetUserByEmail(ctx, "root@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed, %v", err)
	}
	if root.Role != user.RoleAdmin || !root.Active || root.Name != "Root" {
		t.Errorf("unexpected admin: %+v", root)
	}
	if err = root.CheckPassword("s3cr3t!"); err != nil {
		t.Errorf("admin password not set: %v", err)
	}

	updated, err := usrRepo.GetUserByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if updated.Role != user.RoleLecturer || !updated.Active || updated.Name != "Awe" {
		t.Errorf("unexpected update: %+v", updated)
	}
	if err = updated.CheckPassword("n3wpwd!"); err != nil {
		t.Errorf("password not updated: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.cd", "mdrlol", user.RoleStudent, true)

	tests := []cliTest{
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lol"}},
		{name: "reset with mixed case email", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkRunErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				if err = refreshedUsr.CheckPassword(tt.extra.(extra).pwd); err != nil {
					t.Errorf("new password rejected: %v", err)
				}
			}
		})
	}
}

func Test_commandLine_setRole(t *testing.T) {
	cli, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.cd", "mdrlol", user.RoleStudent, true)

	tests := []cliTest{
		{name: "invalid role", args: []string{"setrole", "-email", usr.Email, "-role", "dean"}, wantErr: errInvalidRole},
		{name: "user not found", args: []string{"setrole", "-email", "lol@test.cd", "-role", "admin"}, wantErr: user.ErrNotFound},
		{name: "promote", args: []string{"setrole", "-email", usr.Email, "-role", "Lecturer"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}

	refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if refreshedUsr.Role != user.RoleLecturer {
		t.Errorf("role = %v; want %v", refreshedUsr.Role, user.RoleLecturer)
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli, idx := setup(t)

	checkRunErr(t, cliTest{}, cli.run([]string{"admin", "ensureindexes"}))
	if idx.calls != 1 {
		t.Errorf("EnsureIndexes() calls = %d; want 1", idx.calls)
	}

	idx.err = errors.New("no primary")
	checkRunErr(t, cliTest{wantErrStr: "no primary"}, cli.run([]string{"admin", "ensureindexes"}))
}
