package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
}

// Validate returns an empty string when the request is well formed, otherwise
// a human-readable reason.
func (r RegisterRequest) Validate() string {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err)
	}
	return ""
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() string {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err)
	}
	return ""
}

func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return fe.Field() + " must be a valid email address"
		case "min":
			return fe.Field() + " is too short"
		case "max":
			return fe.Field() + " is too long"
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "invalid request"
}
