package loginapp

import (
	"errors"
	"net/http"

	"github.com/panyam/loginapp/mailer"
	"go.uber.org/zap"
)

// HandleSignup registers a local account and mails a confirmation link.
//
// Successful and duplicate signups both land on the login page with a flash;
// the new account can only log in once the link has been followed.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: titleSignup, Template: templateSignupPage}
	if r.Method != http.MethodPost {
		a.Renderer.Render(w, r, http.StatusOK, pageSignup, data)
		return
	}

	form := parseSignupForm(r)
	data.Form = form
	if data.Errors = ValidateForm(form); data.Errors != nil {
		a.Renderer.Render(w, r, http.StatusOK, pageSignup, data)
		return
	}

	if err := a.signup(r, form); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			a.Sessions.Flash(r.Context(), authErr.Message)
		}
		signups.WithLabelValues("rejected").Inc()
	} else {
		a.Sessions.Flash(r.Context(), msgConfirmSent)
		signups.WithLabelValues("created").Inc()
	}
	a.renderLogin(w, r, http.StatusOK, form, nil)
}

func (a *LocalAuth) signup(r *http.Request, form *SignupForm) error {
	ctx := r.Context()
	exists, err := a.Store.UserExists(ctx, form.Email)
	if err != nil {
		a.Logger.Error("error checking user", zap.String("email", form.Email), zap.Error(err))
		return NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	if exists {
		return NewAuthError(ConflictError, msgUserExists, "email", ErrEmailExists)
	}

	user, err := CreateUser(ctx, a.Store, form.Email, form.Name, form.Password, LoginTypeSite)
	if err != nil {
		if IsKind(err, PersistenceError) {
			a.Logger.Error("error creating user", zap.String("email", form.Email), zap.Error(err))
		}
		return err
	}
	a.Logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("email", user.Email))
	a.sendMail(ctx, mailer.KindConfirm, user.Email)
	return nil
}
