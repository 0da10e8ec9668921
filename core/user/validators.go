package user

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/hsuniversity/classroom/core"
)

var (
	regRoleTag  = "regrole"
	regRoleText = "Invalid role. Must be either student or lecturer"

	userRoleTag  = "userrole"
	userRoleText = "Invalid role. Must be one of admin, lecturer or student"

	emailTag  = "email"
	emailText = "Invalid email format"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "Password must be at least 6 characters long"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "Password is too similar to your email or name"
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(regRoleTag, regRoleValidation)
	core.RegisterCustomTranslation(validate, translator, regRoleTag, regRoleText)

	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)

	_ = validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)

	core.RegisterCustomTranslation(validate, translator, emailTag, emailText, true)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// regRoleValidation only allows the roles one may self-register with.
func regRoleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).In(SelfServiceRoles...)
}

func userRoleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len([]rune(fl.Field().String())) >= pwdMinLen
}

// newUserStructValidation rejects passwords too close to the user's own attributes.
func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok || len([]rune(nu.Password)) < pwdMinLen {
		return
	}
	if passwordTooSimilar(nu.Password, nu.Name, nu.Email) {
		sl.ReportError(nu.Password, "password", "Password", pwdAttrSimTag, "")
	}
}

func passwordTooSimilar(pwd string, attrs ...string) bool {
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		attr = strings.ToLower(attr)
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return true
		}
		// also compare against the email's local part
		if at := strings.IndexByte(attr, '@'); at > 0 {
			local := attr[:at]
			if difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(local, "")).QuickRatio() >= pwdMaxSim {
				return true
			}
		}
	}
	return false
}
