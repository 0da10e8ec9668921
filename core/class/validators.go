package class

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/hsuniversity/classroom/core"
)

var (
	classNameMinLen = 3
	classNameTag    = "classname"
	classNameText   = "Class name must be at least 3 characters long"

	studentInfoTag  = "studentinfo"
	studentInfoText = "Invalid student information"
	studentNameMin  = 2
)

// InitValidators registers the class validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classNameTag, classNameValidation)
	core.RegisterCustomTranslation(validate, translator, classNameTag, classNameText)

	validate.RegisterStructValidation(rosterEntryStructValidation, NewRosterEntry{})
	core.RegisterCustomTranslation(validate, translator, studentInfoTag, studentInfoText)
}

func classNameValidation(fl validator.FieldLevel) bool {
	return len([]rune(core.CleanString(fl.Field().String()))) >= classNameMinLen
}

// rosterEntryStructValidation requires a student id and a name of at least 2 characters.
func rosterEntryStructValidation(sl validator.StructLevel) {
	ne, ok := sl.Current().Interface().(NewRosterEntry)
	if !ok {
		return
	}
	if ne.StudentID == "" || len([]rune(core.CleanString(ne.StudentName))) < studentNameMin {
		sl.ReportError(ne.StudentName, "studentName", "StudentName", studentInfoTag, "")
	}
}
