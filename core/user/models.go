package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hsuniversity/classroom/core"
)

// Role is the closed set of roles a User may hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// Auth providers
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

var (
	AllRoles = []Role{RoleAdmin, RoleLecturer, RoleStudent}

	// SelfServiceRoles are the roles one may pick when registering.
	SelfServiceRoles = []Role{RoleStudent, RoleLecturer}
)

func (r Role) IsValid() bool {
	return r.In(AllRoles...)
}

// In reports whether r is a member of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           string     `json:"uid" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	Name         string     `json:"name" bson:"name"`
	Role         Role       `json:"role" bson:"role"`
	Active       bool       `json:"active" bson:"active"`
	Photo        string     `json:"photo" bson:"photo"`
	AuthProvider string     `json:"authProvider,omitempty" bson:"auth_provider,omitempty"`
	GoogleSub    string     `json:"-" bson:"google_sub,omitempty"`
	PasswordHash []byte     `json:"-" bson:"password_hash,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"` // UTC
	LastLogin    *time.Time `json:"lastLogin" bson:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsLecturer() bool { return u.Role == RoleLecturer }
func (u *User) IsStudent() bool  { return u.Role == RoleStudent }

// DisplayName falls back to "Unknown" for users without a name.
func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Unknown"
	}
	return u.Name
}

// Summary is the {id, name} pair returned by directory listings.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.DisplayName()}
}

// NewUser contains information needed to register a new User.
// Fields are validated in declaration order; the first failure is the one reported.
type NewUser struct {
	Role     Role   `json:"role" validate:"regrole"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"pwdminlen"`
	Name     string `json:"name"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Role and Active are only honoured for admins.
type UpdateUser struct {
	Email  string `json:"email" validate:"omitempty,email"`
	Name   string `json:"name"`
	Photo  string `json:"photo" validate:"omitempty,url"`
	Role   Role   `json:"role" validate:"omitempty,userrole"`
	Active *bool  `json:"active"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr)
}

// Changes lists the fields of a stored User to overwrite. Nil fields keep their stored value.
type Changes struct {
	Name         *string
	Email        *string
	Photo        *string
	Role         *Role
	Active       *bool
	GoogleSub    *string
	PasswordHash []byte
	UpdatedAt    time.Time
}

// Apply writes the changes onto usr.
func (ch Changes) Apply(usr *User) {
	if ch.Name != nil {
		usr.Name = *ch.Name
	}
	if ch.Email != nil {
		usr.Email = *ch.Email
	}
	if ch.Photo != nil {
		usr.Photo = *ch.Photo
	}
	if ch.Role != nil {
		usr.Role = *ch.Role
	}
	if ch.Active != nil {
		usr.Active = *ch.Active
	}
	if ch.GoogleSub != nil {
		usr.GoogleSub = *ch.GoogleSub
	}
	if ch.PasswordHash != nil {
		usr.PasswordHash = ch.PasswordHash
	}
	usr.UpdatedAt = ch.UpdatedAt
}

// PasswordChanges hashes pwd into a Changes.
func PasswordChanges(pwd string) (Changes, error) {
	var usr User
	if err := usr.SetPassword(pwd); err != nil {
		return Changes{}, err
	}
	return Changes{PasswordHash: usr.PasswordHash, UpdatedAt: time.Now().UTC()}, nil
}

type ResetUserPassword struct {
	Token    string `json:"token,omitempty" validate:"required"`
	UID      string `json:"uid,omitempty" validate:"required"`
	Password string `json:"password,omitempty" validate:"required,pwdminlen"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// FederatedIdentity is what a verified third-party ID token tells about its subject.
type FederatedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type QueryFilter struct {
	Role Role `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Role = Role(core.CleanString(string(qf.Role), true /* lower */))
}
