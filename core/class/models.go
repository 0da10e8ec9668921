package class

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/user"
)

type Schedule struct {
	DayOfWeek string `json:"dayOfWeek" bson:"day_of_week"`
	StartTime string `json:"startTime" bson:"start_time"`
	EndTime   string `json:"endTime" bson:"end_time"`
}

type Class struct {
	ID            string    `json:"classId" bson:"_id"`
	Name          string    `json:"className" bson:"class_name"`
	LecturerID    string    `json:"lecturerId" bson:"lecturer_id"`
	LecturerName  string    `json:"lecturerName" bson:"lecturer_name"`
	Students      []string  `json:"students" bson:"students"` // enrolled student uids
	StudentsCount int       `json:"studentsCount" bson:"students_count"`
	Subject       string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Schedule      *Schedule `json:"schedule,omitempty" bson:"schedule,omitempty"`
	Semester      string    `json:"semester,omitempty" bson:"semester,omitempty"`
	Year          int       `json:"year,omitempty" bson:"year,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"` // UTC
}

// HasStudent reports whether uid is enrolled.
func (c *Class) HasStudent(uid string) bool {
	return core.ContainsString(c.Students, uid)
}

// IsOwnedBy reports whether usr is the class's lecturer.
func (c *Class) IsOwnedBy(usr user.User) bool {
	return c.LecturerID == usr.ID
}

// CanManage reports whether usr may mutate the class and its dependent records.
func (c *Class) CanManage(usr user.User) bool {
	return usr.IsAdmin() || (usr.IsLecturer() && c.IsOwnedBy(usr))
}

// CanView reports whether usr may read the class.
func (c *Class) CanView(usr user.User) bool {
	switch usr.Role {
	case user.RoleAdmin:
		return true
	case user.RoleLecturer:
		return c.IsOwnedBy(usr)
	case user.RoleStudent:
		return c.HasStudent(usr.ID)
	}
	return false
}

// RosterEntry is a named enrollment of a student in a class.
type RosterEntry struct {
	ClassID     string    `json:"classId" bson:"class_id"`
	StudentID   string    `json:"studentId" bson:"student_id"`
	StudentName string    `json:"studentName" bson:"student_name"`
	AddedAt     time.Time `json:"addedAt" bson:"added_at"` // UTC
}

// NewClass contains information needed to create a new Class. It is also used for updates.
type NewClass struct {
	Name     string    `json:"className" validate:"classname"`
	Subject  string    `json:"subject"`
	Schedule *Schedule `json:"schedule"`
	Semester string    `json:"semester"`
	Year     int       `json:"year" validate:"omitempty,min=1900,max=2100"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Semester = core.CleanString(nc.Semester)
	return validate.Struct(nc)
}

type NewRosterEntry struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
}

func (ne *NewRosterEntry) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	ne.StudentName = core.CleanString(ne.StudentName)
	return validate.Struct(ne)
}

type EnrollStudents struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,required"`
}

func (es EnrollStudents) Validate(validate *validator.Validate) error { return validate.Struct(es) }

type QueryFilter struct {
	LecturerID string // classes taught by
	StudentID  string // classes whose enrollment contains
}
