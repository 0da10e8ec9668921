package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hsuniversity/classroom/core"
)

type Assignment struct {
	Name     string  `json:"name" bson:"name" validate:"required"`
	Score    float64 `json:"score" bson:"score" validate:"gte=0"`
	Weight   float64 `json:"weight" bson:"weight" validate:"gte=0"`
	Feedback string  `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

// Grade holds the grades of one student in one class.
type Grade struct {
	ID          string       `json:"id" bson:"_id"` // <classId>_<studentId>
	ClassID     string       `json:"classId" bson:"class_id"`
	StudentID   string       `json:"studentId" bson:"student_id"`
	Assignments []Assignment `json:"assignments" bson:"assignments"`
	FinalGrade  *float64     `json:"finalGrade" bson:"final_grade"`
	UpdatedBy   string       `json:"updatedBy" bson:"updated_by"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updated_at"` // UTC
}

// GradeID is the deterministic id of the grade document of studentID in classID.
func GradeID(classID, studentID string) string {
	return classID + "_" + studentID
}

// SetGrades is merged into the existing Grade; omitted fields are left untouched.
type SetGrades struct {
	Assignments []Assignment `json:"assignments" validate:"omitempty,dive"`
	FinalGrade  *float64     `json:"finalGrade" validate:"omitempty,gte=0,lte=100"`
}

func (sg *SetGrades) Validate(validate *validator.Validate) error {
	for i := range sg.Assignments {
		sg.Assignments[i].Name = core.CleanString(sg.Assignments[i].Name)
		sg.Assignments[i].Feedback = core.CleanString(sg.Assignments[i].Feedback)
	}
	return validate.Struct(sg)
}
