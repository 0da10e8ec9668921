package grade

import (
	"context"
	"time"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("Grades not found")
	ErrStudentNotEnrolled = core.NewNotFoundError("Student not found in class")
)

type (
	Repository interface {
		GetGrade(ctx context.Context, id string) (Grade, error)
		FilterGradesByClass(ctx context.Context, classID string) ([]Grade, error)
		// MergeGrade upserts g in a single write and returns the stored Grade.
		// Nil Assignments or FinalGrade keep their stored values.
		MergeGrade(ctx context.Context, g Grade) (Grade, error)
	}

	// ClassAccess resolves a class on behalf of an actor, enforcing visibility and ownership.
	ClassAccess interface {
		Get(ctx context.Context, actor user.User, id string) (class.Class, error)
		GetManaged(ctx context.Context, actor user.User, id string) (class.Class, error)
	}

	Service struct {
		repo    Repository
		classes ClassAccess
	}
)

func NewService(repo Repository, classes ClassAccess) *Service {
	return &Service{repo: repo, classes: classes}
}

// Set merges sg into the grades of an enrolled student.
func (svc *Service) Set(ctx context.Context, actor user.User, classID, studentID string, sg SetGrades) (Grade, error) {
	cls, err := svc.classes.GetManaged(ctx, actor, classID)
	if err != nil {
		return Grade{}, err
	}
	if !cls.HasStudent(studentID) {
		return Grade{}, ErrStudentNotEnrolled
	}

	return svc.repo.MergeGrade(ctx, Grade{
		ID:          GradeID(classID, studentID),
		ClassID:     classID,
		StudentID:   studentID,
		Assignments: sg.Assignments,
		FinalGrade:  sg.FinalGrade,
		UpdatedBy:   actor.ID,
		UpdatedAt:   time.Now().UTC(),
	})
}

// Get returns the grades of a student. Students may only read their own.
func (svc *Service) Get(ctx context.Context, actor user.User, classID, studentID string) (Grade, error) {
	if actor.IsStudent() {
		if actor.ID != studentID {
			return Grade{}, core.ErrPermissionDenied
		}
	} else if _, err := svc.classes.Get(ctx, actor, classID); err != nil {
		return Grade{}, err
	}
	return svc.repo.GetGrade(ctx, GradeID(classID, studentID))
}

// ListForClass returns every grade recorded in a class actor manages.
func (svc *Service) ListForClass(ctx context.Context, actor user.User, classID string) ([]Grade, error) {
	if _, err := svc.classes.GetManaged(ctx, actor, classID); err != nil {
		return nil, err
	}
	return svc.repo.FilterGradesByClass(ctx, classID)
}
