package class

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("Class not found")
	ErrStudentNotInClass  = core.NewNotFoundError("Student not found in this class")
	errInvalidStudentInfo = errors.New(studentInfoText)
)

// InvalidStudentsError lists the ids that could not be enrolled because they are not students.
type InvalidStudentsError struct {
	IDs []string
}

func (err InvalidStudentsError) Error() string {
	return "Invalid student IDs"
}

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		// FilterClasses applies AND operation on the non-empty QueryFilter fields.
		FilterClasses(ctx context.Context, filter QueryFilter) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		// DeleteClass removes the class and its roster.
		DeleteClass(ctx context.Context, id string) error
		// AddRosterEntries upserts the entries and enrolls their students in the class.
		// StudentsCount only grows for students that were not enrolled yet.
		AddRosterEntries(ctx context.Context, classID string, entries ...RosterEntry) error
		ListRoster(ctx context.Context, classID string) ([]RosterEntry, error)
		// RemoveRosterEntry unenrolls the student; ErrStudentNotInClass if they were not.
		RemoveRosterEntry(ctx context.Context, classID, studentID string) error
	}

	// StudentDirectory resolves student ids against the user directory.
	StudentDirectory interface {
		LookupStudents(ctx context.Context, ids []string) (students []user.User, invalid []string, err error)
	}

	Service struct {
		repo      Repository
		directory StudentDirectory
	}
)

func NewService(repo Repository, directory StudentDirectory) *Service {
	return &Service{repo: repo, directory: directory}
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		ID:           uuid.NewString(),
		Name:         nc.Name,
		LecturerID:   actor.ID,
		LecturerName: actor.Name,
		Students:     []string{},
		Subject:      nc.Subject,
		Schedule:     nc.Schedule,
		Semester:     nc.Semester,
		Year:         nc.Year,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

// Query lists the classes visible to actor: all for admins, taught ones for
// lecturers, enrolled ones for students.
func (svc *Service) Query(ctx context.Context, actor user.User) ([]Class, error) {
	var filter QueryFilter
	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleLecturer:
		filter.LecturerID = actor.ID
	case user.RoleStudent:
		filter.StudentID = actor.ID
	default:
		return []Class{}, nil
	}
	return svc.repo.FilterClasses(ctx, filter)
}

// Get returns the class if actor may see it.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !cls.CanView(actor) {
		return Class{}, core.ErrPermissionDenied
	}
	return cls, nil
}

// GetManaged returns the class if actor may mutate it.
func (svc *Service) GetManaged(ctx context.Context, actor user.User, id string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !cls.CanManage(actor) {
		return Class{}, core.ErrPermissionDenied
	}
	return cls, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, nc NewClass) (Class, error) {
	cls, err := svc.GetManaged(ctx, actor, id)
	if err != nil {
		return Class{}, err
	}
	cls.Name = nc.Name
	if nc.Subject != "" {
		cls.Subject = nc.Subject
	}
	if nc.Schedule != nil {
		cls.Schedule = nc.Schedule
	}
	if nc.Semester != "" {
		cls.Semester = nc.Semester
	}
	if nc.Year != 0 {
		cls.Year = nc.Year
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

// Delete removes the class together with its roster.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteClass(ctx, id)
}

// AddStudent enrolls a single named student.
func (svc *Service) AddStudent(ctx context.Context, actor user.User, id string, ne NewRosterEntry) (RosterEntry, error) {
	if _, err := svc.GetManaged(ctx, actor, id); err != nil {
		return RosterEntry{}, err
	}
	_, invalid, err := svc.directory.LookupStudents(ctx, []string{ne.StudentID})
	if err != nil {
		return RosterEntry{}, errors.Wrap(err, "looking up student")
	}
	if len(invalid) > 0 {
		return RosterEntry{}, core.NewValidationError(errInvalidStudentInfo)
	}

	entry := RosterEntry{
		ClassID:     id,
		StudentID:   ne.StudentID,
		StudentName: ne.StudentName,
		AddedAt:     time.Now().UTC(),
	}
	if err = svc.repo.AddRosterEntries(ctx, id, entry); err != nil {
		return RosterEntry{}, err
	}
	return entry, nil
}

// EnrollStudents enrolls existing students by id. Nothing is enrolled if any id is not a student.
func (svc *Service) EnrollStudents(ctx context.Context, actor user.User, id string, ids []string) error {
	if _, err := svc.GetManaged(ctx, actor, id); err != nil {
		return err
	}
	students, invalid, err := svc.directory.LookupStudents(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "looking up students")
	}
	if len(invalid) > 0 {
		return &InvalidStudentsError{IDs: invalid}
	}

	now := time.Now().UTC()
	entries := make([]RosterEntry, 0, len(students))
	for _, usr := range students {
		entries = append(entries, RosterEntry{
			ClassID:     id,
			StudentID:   usr.ID,
			StudentName: usr.DisplayName(),
			AddedAt:     now,
		})
	}
	return svc.repo.AddRosterEntries(ctx, id, entries...)
}

// ListStudents returns the roster of a class actor may see.
func (svc *Service) ListStudents(ctx context.Context, actor user.User, id string) ([]RosterEntry, error) {
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return svc.repo.ListRoster(ctx, id)
}

func (svc *Service) RemoveStudent(ctx context.Context, actor user.User, id, studentID string) error {
	if _, err := svc.GetManaged(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.RemoveRosterEntry(ctx, id, studentID)
}
