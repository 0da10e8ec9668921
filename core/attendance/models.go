package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hsuniversity/classroom/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

type StudentStatus struct {
	StudentID string `json:"studentId" bson:"student_id" validate:"required"`
	Status    Status `json:"status" bson:"status" validate:"attstatus"`
	Note      string `json:"note,omitempty" bson:"note,omitempty"`
}

// Record is the attendance of a class on a given date.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	ClassID   string          `json:"classId" bson:"class_id"`
	Date      string          `json:"date" bson:"date"` // YYYY-MM-DD
	Students  []StudentStatus `json:"students" bson:"students"`
	CreatedBy string          `json:"createdBy" bson:"created_by"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"` // UTC
	UpdatedBy string          `json:"updatedBy,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty" bson:"updated_at,omitempty"` // UTC
}

// StudentView is what a student sees of a Record: their own entry only.
type StudentView struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Status Status `json:"status"`
	Note   string `json:"note"`
}

// ViewFor returns the entry of studentID, if the record has one.
func (r *Record) ViewFor(studentID string) (StudentView, bool) {
	for _, st := range r.Students {
		if st.StudentID == studentID {
			return StudentView{ID: r.ID, Date: r.Date, Status: st.Status, Note: st.Note}, true
		}
	}
	return StudentView{}, false
}

type NewRecord struct {
	Date     string          `json:"date" validate:"required,isodate"`
	Students []StudentStatus `json:"students" validate:"required,dive"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Date = core.CleanString(nr.Date)
	cleanStatuses(nr.Students)
	return validate.Struct(nr)
}

type UpdateRecord struct {
	Date     string          `json:"date" validate:"omitempty,isodate"`
	Students []StudentStatus `json:"students" validate:"required,dive"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Date = core.CleanString(ur.Date)
	cleanStatuses(ur.Students)
	return validate.Struct(ur)
}

// Changes overwrites the roll of a stored Record; an empty Date keeps the stored one.
type Changes struct {
	Date      string
	Students  []StudentStatus
	UpdatedBy string
	UpdatedAt time.Time
}

func cleanStatuses(students []StudentStatus) {
	for i := range students {
		students[i].StudentID = core.CleanString(students[i].StudentID)
		students[i].Status = Status(core.CleanString(string(students[i].Status), true /* lower */))
		students[i].Note = core.CleanString(students[i].Note)
	}
}
