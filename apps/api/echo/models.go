package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/hsuniversity/classroom/core"
	"github.com/hsuniversity/classroom/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	GoogleLoginRequest struct {
		IDToken string `json:"idToken" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}

	// authUser is the public part of a User returned along a fresh token.
	authUser struct {
		ID    string    `json:"uid"`
		Email string    `json:"email"`
		Name  string    `json:"name"`
		Role  user.Role `json:"role"`
		Photo string    `json:"photo,omitempty"`
	}

	authResponse struct {
		Message string   `json:"message"`
		Token   string   `json:"token"`
		User    authUser `json:"user"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (gr *GoogleLoginRequest) Validate(validate *validator.Validate) error {
	gr.IDToken = core.CleanString(gr.IDToken)
	return validate.Struct(gr)
}

func newAuthUser(usr user.User) authUser {
	return authUser{
		ID:    usr.ID,
		Email: usr.Email,
		Name:  usr.Name,
		Role:  usr.Role,
		Photo: usr.Photo,
	}
}
