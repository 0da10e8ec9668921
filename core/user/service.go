package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("User not found")
	ErrEmailExists       = errors.New("Email already in use")
	ErrIncorrectPassword = errors.New("Incorrect password")
	ErrAccountDisabled   = errors.New("Account is disabled")
	ErrFederatedDisabled = errors.New("The account has been disabled")
	ErrCannotDeleteSelf  = errors.New("Cannot delete yourself")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if another user than excludedUsers holds email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByGoogleSub(ctx context.Context, sub string) (User, error)
		// GetUsersByIDs returns the users found among ids; unknown ids are skipped.
		GetUsersByIDs(ctx context.Context, ids []string) ([]User, error)
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		// UpdateUser overwrites the given fields only and returns the stored User.
		UpdateUser(ctx context.Context, id string, ch Changes) (User, error)
		// SetLastLogin stamps the user's last login with the store's clock.
		SetLastLogin(ctx context.Context, id string) error
		// DeleteUser removes the user and every class roster membership they hold.
		DeleteUser(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		FederatedLogin(ctx context.Context, fi FederatedIdentity) (usr User, created bool, err error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter QueryFilter) ([]User, error)
		ListByRole(ctx context.Context, role Role) ([]Summary, error)
		LookupStudents(ctx context.Context, ids []string) (students []User, invalid []string, err error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		Delete(ctx context.Context, id string, actor User) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  resetTokenGenerator
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newResetTokenGenerator(conf.SecretKey, conf.Auth.PasswordResetTimeout),
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return err
	}
	return nil
}

// Register creates an active, password-authenticated user.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:           uuid.NewString(),
		Email:        nu.Email,
		Name:         nu.Name,
		Role:         nu.Role,
		Active:       true,
		AuthProvider: ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if errors.Cause(err) == ErrEmailExists {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return usr, err
}

// Authenticate checks the email/password pair and stamps the user's last login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if len(usr.PasswordHash) == 0 || usr.CheckPassword(pwd) != nil {
		return User{}, ErrIncorrectPassword
	}
	if !usr.Active {
		return User{}, ErrAccountDisabled
	}
	if err = svc.repo.SetLastLogin(ctx, usr.ID); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// FederatedLogin signs in the subject of a verified third-party identity.
// Known subjects are signed in; an unlinked account sharing a verified email is linked;
// anybody else gets a new student account.
func (svc *Service) FederatedLogin(ctx context.Context, fi FederatedIdentity) (User, bool, error) {
	usr, err := svc.repo.GetUserByGoogleSub(ctx, fi.Subject)
	switch {
	case err == nil:
	case errors.Cause(err) != ErrNotFound:
		return User{}, false, errors.Wrap(err, "finding user by google subject")
	case fi.Email != "" && fi.EmailVerified:
		usr, err = svc.linkByEmail(ctx, fi)
		if errors.Cause(err) == ErrNotFound {
			usr, err = svc.createFederated(ctx, fi)
			return usr, err == nil, err
		}
		if err != nil {
			return User{}, false, err
		}
	default:
		usr, err = svc.createFederated(ctx, fi)
		return usr, err == nil, err
	}

	if !usr.Active {
		return User{}, false, ErrFederatedDisabled
	}
	if err = svc.repo.SetLastLogin(ctx, usr.ID); err != nil {
		return User{}, false, errors.Wrap(err, "setting last login")
	}
	return usr, false, nil
}

func (svc *Service) linkByEmail(ctx context.Context, fi FederatedIdentity) (User, error) {
	usr, err := svc.GetByEmail(ctx, fi.Email)
	if err != nil {
		return User{}, err
	}
	ch := Changes{GoogleSub: &fi.Subject, UpdatedAt: time.Now().UTC()}
	if usr.Photo == "" && fi.Picture != "" {
		ch.Photo = &fi.Picture
	}
	return svc.repo.UpdateUser(ctx, usr.ID, ch)
}

func (svc *Service) createFederated(ctx context.Context, fi FederatedIdentity) (User, error) {
	email := core.CleanString(fi.Email, true /* lower */)
	if err := svc.CheckUniqueness(ctx, email); err != nil {
		return User{}, err
	}

	name := core.CleanString(fi.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := time.Now().UTC()
	usr := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         RoleStudent,
		Active:       true,
		Photo:        fi.Picture,
		AuthProvider: fi.Provider,
		GoogleSub:    fi.Subject,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    &now,
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter)
}

// ListByRole returns the {id, name} directory of every user holding role.
func (svc *Service) ListByRole(ctx context.Context, role Role) ([]Summary, error) {
	users, err := svc.repo.FilterUsers(ctx, QueryFilter{Role: role})
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(users))
	for _, usr := range users {
		summaries = append(summaries, usr.Summary())
	}
	return summaries, nil
}

// LookupStudents splits ids into the existing students and the ids that are not one, in input order.
func (svc *Service) LookupStudents(ctx context.Context, ids []string) ([]User, []string, error) {
	users, err := svc.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]User, len(users))
	for _, usr := range users {
		if usr.IsStudent() {
			byID[usr.ID] = usr
		}
	}
	students := make([]User, 0, len(byID))
	invalid := make([]string, 0)
	for _, id := range ids {
		if usr, ok := byID[id]; ok {
			students = append(students, usr)
		} else {
			invalid = append(invalid, id)
		}
	}
	return students, invalid, nil
}

// Update writes the validated changes of uu over usr; fields left as in usr are not written.
// Callers drop Role & Active for non-admins.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	ch := Changes{Active: uu.Active, UpdatedAt: time.Now().UTC()}
	if uu.Name != usr.Name {
		ch.Name = &uu.Name
	}
	if uu.Email != usr.Email {
		ch.Email = &uu.Email
	}
	if uu.Photo != "" {
		ch.Photo = &uu.Photo
	}
	if uu.Role != "" {
		ch.Role = &uu.Role
	}
	return svc.repo.UpdateUser(ctx, usr.ID, ch)
}

// Delete removes a user other than actor, along with their roster memberships.
func (svc *Service) Delete(ctx context.Context, id string, actor User) error {
	if id == actor.ID {
		return core.NewValidationError(ErrCannotDeleteSelf)
	}
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteUser(ctx, id)
}

// RequestPasswordReset mails a password reset link to the owner of email, if any.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active {
		return ErrAccountDisabled
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Email": usr.Email,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password once the reset token has been verified.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err)
	}

	ch, err := PasswordChanges(data.Password)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateUser(ctx, usr.ID, ch)
	return err
}
