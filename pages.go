package loginapp

import (
	"net/http"

	"go.uber.org/zap"
)

const titleMain = "Flask-Login Tutorial."

// Pages serves the pages behind login plus logout and account deletion.
// All handlers expect EnsureUser to have run.
type Pages struct {
	Store    UserStore
	Sessions *Sessions
	Renderer *Renderer
	Logger   *zap.Logger
	LoginURL string
}

func (p *Pages) EnsureDefaults() *Pages {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.LoginURL == "" {
		p.LoginURL = "/login/"
	}
	return p
}

func (p *Pages) HandleMain(w http.ResponseWriter, r *http.Request) {
	p.Renderer.Render(w, r, http.StatusOK, pageMain, PageData{Title: titleMain, Template: "main-template"})
}

func (p *Pages) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p.Renderer.Render(w, r, http.StatusOK, pageProfile, PageData{Title: titleMain, Template: "profile-template"})
}

// HandleDeleteProfile removes the account and ends the session
func (p *Pages) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := p.Store.DeleteUser(r.Context(), user); err != nil {
		p.Logger.Error("error deleting user", zap.String("user_id", user.ID), zap.Error(err))
		p.Sessions.Flash(r.Context(), errGenericPersistence)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	p.Logger.Info("user deleted", zap.String("user_id", user.ID))
	p.logOut(w, r)
}

func (p *Pages) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p.logOut(w, r)
}

func (p *Pages) logOut(w http.ResponseWriter, r *http.Request) {
	if err := p.Sessions.LogOut(r.Context()); err != nil {
		p.Logger.Warn("error clearing session", zap.Error(err))
	}
	http.Redirect(w, r, p.LoginURL, http.StatusFound)
}
