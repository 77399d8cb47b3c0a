package loginapp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/panyam/loginapp/mailer"
	"go.uber.org/zap"
)

const (
	msgUserExists        = "User exists."
	msgConfirmSent       = "We just sent you an email to confirm your account."
	msgNotRegistered     = "User not registered."
	msgResetSent         = "An email sent to you."
	msgEmailNotFound     = "The email address is not registered."
	msgUserNotFound      = "User not found."
	msgPasswordChanged   = "Password changed."
	msgRecoveryMismatch  = "The email does not match the recovery link."
	titleLogin           = "Log in."
	titleSignup          = "Join  our community!"
	titleReset           = "Password recovery."
	titleRecover         = "Reset your password."
	templateLoginPage    = "login-page"
	templateSignupPage   = "signup-page"
	defaultLoggedInRoute = "/"
)

// MailSender queues confirmation and reset mails. Sending never blocks on delivery.
type MailSender interface {
	Send(ctx context.Context, kind mailer.Kind, to string) error
}

// LocalAuth handles email/password accounts: signup, login, reset requests,
// confirmation links and password recovery
type LocalAuth struct {
	Store    UserStore
	Tokens   *TokenService
	Mailer   MailSender
	Sessions *Sessions
	Renderer *Renderer
	Logger   *zap.Logger

	// TrustRecoveryForm skips re-verifying the token on the recover POST and
	// trusts the email submitted in the form
	TrustRecoveryForm bool

	// LoginURL is where failed confirmations and recoveries are sent
	LoginURL string
}

func (a *LocalAuth) EnsureDefaults() *LocalAuth {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.LoginURL == "" {
		a.LoginURL = "/login/"
	}
	return a
}

func (a *LocalAuth) renderLogin(w http.ResponseWriter, r *http.Request, status int, form any, errs FieldErrors) {
	a.Renderer.Render(w, r, status, pageLogin, PageData{
		Title:    titleLogin,
		Template: templateLoginPage,
		Form:     form,
		Errors:   errs,
	})
}

// HandleLogin serves the local login page and checks submitted credentials
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, defaultLoggedInRoute, http.StatusFound)
		return
	}
	if r.Method != http.MethodPost {
		a.renderLogin(w, r, http.StatusOK, nil, nil)
		return
	}

	form := parseLoginForm(r)
	if errs := ValidateForm(form); errs != nil {
		a.renderLogin(w, r, http.StatusOK, form, errs)
		return
	}

	user, err := a.authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		a.handleLoginError(err, w, r, form)
		return
	}
	if err := a.logIn(r.Context(), user); err != nil {
		a.handleLoginError(err, w, r, form)
		return
	}
	loginAttempts.WithLabelValues(string(LoginTypeSite), "success").Inc()
	redirectNext(w, r)
}

// authenticate returns the user only if it exists, is confirmed and the
// password matches. All other outcomes are the same "not registered" error.
func (a *LocalAuth) authenticate(ctx context.Context, email, password string) (*User, error) {
	notRegistered := NewAuthError(ValidationError, msgNotRegistered, "", nil)
	user, err := a.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, notRegistered
		}
		a.Logger.Error("error loading user", zap.String("email", email), zap.Error(err))
		return nil, NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	if !user.Confirmed || !user.CheckPassword(password) {
		return nil, notRegistered
	}
	return user, nil
}

func (a *LocalAuth) handleLoginError(err error, w http.ResponseWriter, r *http.Request, form *LoginForm) {
	loginAttempts.WithLabelValues(string(LoginTypeSite), "failure").Inc()
	var authErr *AuthError
	if errors.As(err, &authErr) {
		a.Sessions.Flash(r.Context(), authErr.Message)
	} else {
		a.Sessions.Flash(r.Context(), errGenericPersistence)
	}
	a.renderLogin(w, r, http.StatusOK, form, nil)
}

// logIn stamps last login, saves the user and binds it to the session
func (a *LocalAuth) logIn(ctx context.Context, user *User) error {
	return establishSession(ctx, a.Store, a.Sessions, user, a.Logger)
}

func establishSession(ctx context.Context, store UserStore, sessions *Sessions, user *User, logger *zap.Logger) error {
	user.SetLastLogin()
	if err := commitUser(ctx, store, user, logger); err != nil {
		return err
	}
	if err := sessions.LogIn(ctx, user); err != nil {
		logger.Error("error establishing session", zap.String("user_id", user.ID), zap.Error(err))
		return NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	return nil
}

// HandleReset sends a password reset mail to a registered address
func (a *LocalAuth) HandleReset(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: titleReset, Template: templateLoginPage}
	if r.Method != http.MethodPost {
		a.Renderer.Render(w, r, http.StatusOK, pageReset, data)
		return
	}

	form := parseResetForm(r)
	data.Form = form
	if data.Errors = ValidateForm(form); data.Errors != nil {
		a.Renderer.Render(w, r, http.StatusOK, pageReset, data)
		return
	}

	exists, err := a.Store.UserExists(r.Context(), form.Email)
	switch {
	case err != nil:
		a.Logger.Error("error checking user", zap.String("email", form.Email), zap.Error(err))
		a.Sessions.Flash(r.Context(), errGenericPersistence)
	case exists:
		a.sendMail(r.Context(), mailer.KindReset, form.Email)
		a.Sessions.Flash(r.Context(), msgResetSent)
	default:
		a.Sessions.Flash(r.Context(), msgEmailNotFound)
	}
	a.Renderer.Render(w, r, http.StatusOK, pageReset, data)
}

func (a *LocalAuth) sendMail(ctx context.Context, kind mailer.Kind, to string) {
	if err := a.Mailer.Send(ctx, kind, to); err != nil {
		a.Logger.Error("error sending mail", zap.String("kind", string(kind)), zap.String("email", to), zap.Error(err))
	}
}

// HandleConfirm marks the account behind a confirmation link as confirmed
// and logs it in
func (a *LocalAuth) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	email, err := a.Tokens.EmailFromToken(mux.Vars(r)["token"])
	if err != nil {
		confirmations.WithLabelValues("invalid").Inc()
		a.handleTokenError(err, w, r)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			a.Logger.Error("error loading user", zap.String("email", email), zap.Error(err))
			a.Sessions.Flash(r.Context(), errGenericPersistence)
		}
		confirmations.WithLabelValues("no_user").Inc()
		a.renderLogin(w, r, http.StatusOK, nil, nil)
		return
	}

	user.Confirmed = true
	if err := a.logIn(r.Context(), user); err != nil {
		a.handleLoginError(err, w, r, nil)
		return
	}
	confirmations.WithLabelValues("confirmed").Inc()
	redirectNext(w, r)
}

func (a *LocalAuth) handleTokenError(err error, w http.ResponseWriter, r *http.Request) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		a.Sessions.Flash(r.Context(), authErr.Message)
	}
	http.Redirect(w, r, a.LoginURL, http.StatusFound)
}

// HandleRecover shows the new password form for a reset link and applies it
func (a *LocalAuth) HandleRecover(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	data := PageData{Title: titleRecover, Template: templateLoginPage, Token: token}

	if r.Method != http.MethodPost {
		if _, err := a.Tokens.EmailFromToken(token); err != nil {
			a.handleTokenError(err, w, r)
			return
		}
		a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
		return
	}

	form := parseRecoverForm(r)
	data.Form = form
	if data.Errors = ValidateForm(form); data.Errors != nil {
		a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
		return
	}

	// stores match emails exactly, so the account changed is the one the
	// token was issued for, not a case variant of it
	target := form.Email
	if !a.TrustRecoveryForm {
		email, err := a.Tokens.EmailFromToken(token)
		if err != nil {
			a.handleTokenError(err, w, r)
			return
		}
		if email != form.Email {
			data.Errors = FieldErrors{"email": msgRecoveryMismatch}
			a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
			return
		}
		target = email
	}

	user, err := a.Store.GetUserByEmail(r.Context(), target)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			a.Logger.Error("error loading user", zap.String("email", target), zap.Error(err))
			a.Sessions.Flash(r.Context(), errGenericPersistence)
		}
		a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
		return
	}
	if err := user.SetPassword(form.Password); err != nil {
		a.Logger.Error("error hashing password", zap.Error(err))
		a.Sessions.Flash(r.Context(), errGenericPersistence)
		a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
		return
	}
	if err := commitUser(r.Context(), a.Store, user, a.Logger); err != nil {
		a.Sessions.Flash(r.Context(), errGenericPersistence)
		a.Renderer.Render(w, r, http.StatusOK, pageRecover, data)
		return
	}

	a.Logger.Info("password changed", zap.String("user_id", user.ID))
	a.Sessions.Flash(r.Context(), msgPasswordChanged)
	http.Redirect(w, r, a.LoginURL, http.StatusFound)
}

// redirectNext sends the user to the local path in ?next= or to the main page
func redirectNext(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
}

// safeNext only allows same-site absolute paths
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLoggedInRoute
	}
	return next
}
