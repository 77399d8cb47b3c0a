package loginapp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignupForm is the registration form
type SignupForm struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,min=6,email"`
	Password string `form:"password" validate:"required,min=6,maxbytes=72"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
}

// LoginForm is the local login form
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// ResetForm requests a password reset mail
type ResetForm struct {
	Email string `form:"email" validate:"required,min=6,email"`
}

// RecoverForm sets a new password
type RecoverForm struct {
	Email    string `form:"email" validate:"required,min=6,email"`
	Password string `form:"password" validate:"required,min=6,maxbytes=72"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
}

// FieldErrors maps lower-case form field names to a message
type FieldErrors map[string]string

// messages per "field.tag", falling back to per tag
var fieldMessages = map[string]string{
	"email.email":       "Enter a valid email.",
	"email.min":         "Field must be at least 6 characters long.",
	"password.min":      "Select a stronger password.",
	"password.maxbytes": "Password must be at most 72 bytes long.",
	"confirm.eqfield":   "Passwords must match.",
	"required":          "This field is required.",
}

// fieldOrder fixes which error is surfaced first when several fields fail
var fieldOrder = []string{"name", "email", "password", "confirm"}

// maxPasswordBytes is the longest input bcrypt accepts
const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// max counts runes; bcrypt's limit is in bytes
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			limit = maxPasswordBytes
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// ValidateForm runs struct validation and returns per-field messages, or nil
func ValidateForm(form any) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := fieldMessages[field+"."+fe.Tag()]
		if !ok {
			if msg, ok = fieldMessages[fe.Tag()]; !ok {
				msg = "Invalid value."
			}
		}
		out[field] = msg
	}
	return out
}

// AsError wraps field errors into a ValidationError
func (f FieldErrors) AsError() error {
	if len(f) == 0 {
		return nil
	}
	for _, field := range fieldOrder {
		if msg, ok := f[field]; ok {
			return NewAuthError(ValidationError, msg, field, nil)
		}
	}
	for field, msg := range f {
		return NewAuthError(ValidationError, msg, field, nil)
	}
	return nil
}

func parseSignupForm(r *http.Request) *SignupForm {
	return &SignupForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
}

func parseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
}

func parseResetForm(r *http.Request) *ResetForm {
	return &ResetForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
}

func parseRecoverForm(r *http.Request) *RecoverForm {
	return &RecoverForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
}
