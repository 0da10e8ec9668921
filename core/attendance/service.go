package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/class"
	"github.com/hsuniversity/classroom/core/user"
)

var ErrNotFound = core.NewNotFoundError("Attendance record not found")

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// FilterRecordsByClass returns the records of a class, latest date first.
		FilterRecordsByClass(ctx context.Context, classID string) ([]Record, error)
		// UpdateRecord writes ch over the record and returns the stored Record.
		UpdateRecord(ctx context.Context, id string, ch Changes) (Record, error)
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

// checkEnrolled rejects statuses for students outside the class.
func checkEnrolled(cls class.Class, students []StudentStatus) error {
	invalid := make([]string, 0)
	for _, st := range students {
		if !cls.HasStudent(st.StudentID) {
			invalid = append(invalid, st.StudentID)
		}
	}
	if len(invalid) > 0 {
		return &class.InvalidStudentsError{IDs: invalid}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, classID string, nr NewRecord) (Record, error) {
	cls, err := svc.classes.GetManaged(ctx, actor, classID)
	if err != nil {
		return Record{}, err
	}
	if err = checkEnrolled(cls, nr.Students); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		ClassID:   classID,
		Date:      nr.Date,
		Students:  nr.Students,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// ListForClass returns the class's records, latest date first, for staff allowed to see the class.
func (svc *Service) ListForClass(ctx context.Context, actor user.User, classID string) ([]Record, error) {
	if _, err := svc.classes.Get(ctx, actor, classID); err != nil {
		return nil, err
	}
	return svc.repo.FilterRecordsByClass(ctx, classID)
}

// ListForStudent returns the student's own entries in the class, latest date first.
// Records without an entry for the student are skipped.
func (svc *Service) ListForStudent(ctx context.Context, student user.User, classID string) ([]StudentView, error) {
	recs, err := svc.ListForClass(ctx, student, classID)
	if err != nil {
		return nil, err
	}
	views := make([]StudentView, 0, len(recs))
	for _, rec := range recs {
		if view, ok := rec.ViewFor(student.ID); ok {
			views = append(views, view)
		}
	}
	return views, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	cls, err := svc.classes.GetManaged(ctx, actor, rec.ClassID)
	if err != nil {
		return Record{}, err
	}
	if err = checkEnrolled(cls, ur.Students); err != nil {
		return Record{}, err
	}

	return svc.repo.UpdateRecord(ctx, rec.ID, Changes{
		Date:      ur.Date,
		Students:  ur.Students,
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now().UTC(),
	})
}
