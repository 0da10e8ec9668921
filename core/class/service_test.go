package class_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/user"
	inmemdb "github.com/hsuniversity/classroom/storage/database/inmem"
	testutil "github.com/hsuniversity/classroom/tests"
)

type fixture struct {
	svc   *class.Service
	repo  class.Repository
	users user.Repository

	admin, lect, other, ada, bob user.User
}

func newFixture(t *testing.T) fixture {
	db := inmemdb.Open()
	users := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewClassRepository(db)
	directory := user.NewService(users, nil, core.NewTestConfig())

	return fixture{
		svc:   class.NewService(repo, directory),
		repo:  repo,
		users: users,
		admin: testutil.CreateUser(t, users, "Admin", "admin@test.cd", "", user.RoleAdmin, true),
		lect:  testutil.CreateUser(t, users, "Lect", "lect@test.cd", "", user.RoleLecturer, true),
		other: testutil.CreateUser(t, users, "Other", "other@test.cd", "", user.RoleLecturer, true),
		ada:   testutil.CreateUser(t, users, "Ada", "ada@test.cd", "", user.RoleStudent, true),
		bob:   testutil.CreateUser(t, users, "", "bob@test.cd", "", user.RoleStudent, true),
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.svc.Create(ctx, f.lect, class.NewClass{Name: "Algebra", Year: 2024})
	require.NoError(t, err)
	assert.NotEmpty(t, cls.ID)
	assert.Equal(t, f.lect.ID, cls.LecturerID)
	assert.Equal(t, "Lect", cls.LecturerName)
	assert.Empty(t, cls.Students)
	assert.Equal(t, 0, cls.StudentsCount)
	assert.Equal(t, cls.CreatedAt, cls.UpdatedAt)
}

func TestService_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	algebra, err := f.svc.Create(ctx, f.lect, class.NewClass{Name: "Algebra"})
	require.NoError(t, err)
	geometry, err := f.svc.Create(ctx, f.other, class.NewClass{Name: "Geometry"})
	require.NoError(t, err)
	require.NoError(t, f.svc.EnrollStudents(ctx, f.lect, algebra.ID, []string{f.ada.ID}))

	ids := func(usr user.User) []string {
		classes, err := f.svc.Query(ctx, usr)
		require.NoError(t, err)
		out := make([]string, 0, len(classes))
		for _, cls := range classes {
			out = append(out, cls.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []string{algebra.ID, geometry.ID}, ids(f.admin))
	assert.Equal(t, []string{algebra.ID}, ids(f.lect))
	assert.Equal(t, []string{algebra.ID}, ids(f.ada))
	assert.Empty(t, ids(f.bob))
	assert.Empty(t, ids(user.User{ID: "ghost", Role: "janitor"}))

	tests := []struct {
		name    string
		actor   user.User
		id      string
		wantErr error
	}{
		{"admin", f.admin, algebra.ID, nil},
		{"owner", f.lect, algebra.ID, nil},
		{"enrolled student", f.ada, algebra.ID, nil},
		{"other lecturer", f.other, algebra.ID, core.ErrPermissionDenied},
		{"other student", f.bob, algebra.ID, core.ErrPermissionDenied},
		{"unknown class", f.admin, "nope", class.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Get(ctx, tt.actor, tt.id)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}

	_, err = f.svc.GetManaged(ctx, f.ada, algebra.ID)
	assert.Equal(t, core.ErrPermissionDenied, err)
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.svc.Create(ctx, f.lect, class.NewClass{Name: "Algebra", Subject: "Maths", Semester: "Fall", Year: 2024})
	require.NoError(t, err)
	require.NoError(t, f.svc.EnrollStudents(ctx, f.lect, cls.ID, []string{f.ada.ID}))

	_, err = f.svc.Update(ctx, f.other, cls.ID, class.NewClass{Name: "Hacked"})
	assert.Equal(t, core.ErrPermissionDenied, err)

	updated, err := f.svc.Update(ctx, f.admin, cls.ID, class.NewClass{Name: "Linear Algebra", Semester: "Spring"})
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", updated.Name)
	assert.Equal(t, "Maths", updated.Subject)
	assert.Equal(t, "Spring", updated.Semester)
	assert.Equal(t, 2024, updated.Year)
	assert.Equal(t, f.lect.ID, updated.LecturerID)
	assert.Equal(t, []string{f.ada.ID}, updated.Students)
	assert.Equal(t, 1, updated.StudentsCount)
	assert.True(t, updated.UpdatedAt.After(cls.UpdatedAt) || updated.UpdatedAt.Equal(cls.UpdatedAt))
}

func TestService_Roster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.svc.Create(ctx, f.lect, class.NewClass{Name: "Algebra"})
	require.NoError(t, err)

	t.Run("enroll rejects non students as a whole", func(t *testing.T) {
		err := f.svc.EnrollStudents(ctx, f.lect, cls.ID, []string{f.ada.ID, f.other.ID, "nope"})
		var invalid *class.InvalidStudentsError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.Equal(t, []string{f.other.ID, "nope"}, invalid.IDs)

		got, err := f.repo.GetClassByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Students)
	})

	t.Run("enroll by another lecturer", func(t *testing.T) {
		err := f.svc.EnrollStudents(ctx, f.other, cls.ID, []string{f.ada.ID})
		assert.Equal(t, core.ErrPermissionDenied, err)
	})

	t.Run("enroll is idempotent", func(t *testing.T) {
		require.NoError(t, f.svc.EnrollStudents(ctx, f.lect, cls.ID, []string{f.ada.ID, f.bob.ID}))
		require.NoError(t, f.svc.EnrollStudents(ctx, f.lect, cls.ID, []string{f.ada.ID}))

		got, err := f.repo.GetClassByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{f.ada.ID, f.bob.ID}, got.Students)
		assert.Equal(t, 2, got.StudentsCount)

		roster, err := f.svc.ListStudents(ctx, f.ada, cls.ID)
		require.NoError(t, err)
		names := make([]string, 0, len(roster))
		for _, entry := range roster {
			names = append(names, entry.StudentName)
		}
		assert.ElementsMatch(t, []string{"Ada", "Unknown"}, names)
	})

	t.Run("add student", func(t *testing.T) {
		_, err := f.svc.AddStudent(ctx, f.lect, cls.ID, class.NewRosterEntry{StudentID: f.lect.ID, StudentName: "Lect"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "Invalid student information", vErr.Error())

		entry, err := f.svc.AddStudent(ctx, f.lect, cls.ID, class.NewRosterEntry{StudentID: f.bob.ID, StudentName: "Bob B."})
		require.NoError(t, err)
		assert.Equal(t, cls.ID, entry.ClassID)
		assert.Equal(t, "Bob B.", entry.StudentName)

		got, err := f.repo.GetClassByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.StudentsCount)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, f.svc.RemoveStudent(ctx, f.lect, cls.ID, f.bob.ID))
		assert.Equal(t, class.ErrStudentNotInClass, f.svc.RemoveStudent(ctx, f.lect, cls.ID, f.bob.ID))

		got, err := f.repo.GetClassByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.ada.ID}, got.Students)
		assert.Equal(t, 1, got.StudentsCount)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, cls.ID))
		assert.Equal(t, class.ErrNotFound, f.svc.Delete(ctx, cls.ID))

		roster, err := f.repo.ListRoster(ctx, cls.ID)
		require.NoError(t, err)
		assert.Empty(t, roster)
	})
}
