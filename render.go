package loginapp

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFiles serves the embedded assets under /static/
func StaticFiles() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

const (
	pageSignup  = "signup.html"
	pageLogin   = "login.html"
	pageReset   = "reset.html"
	pageRecover = "recover.html"
	pageMain    = "main.html"
	pageProfile = "profile.html"
)

var pageNames = []string{pageSignup, pageLogin, pageReset, pageRecover, pageMain, pageProfile}

// PageData is what every page template is rendered with
type PageData struct {
	Title     string
	Template  string
	User      *User
	Flashes   []string
	Errors    FieldErrors
	Form      any
	Providers []string
	Token     string
	Next      string
	CSRFField template.HTML
}

type Renderer struct {
	Sessions  *Sessions
	Providers []string
	Logger    *zap.Logger
	pages     map[string]*template.Template
}

// NewRenderer parses the layout together with each page
func NewRenderer(sessions *Sessions, providers []string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages := map[string]*template.Template{}
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("error parsing template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{Sessions: sessions, Providers: providers, Logger: logger, pages: pages}, nil
}

// Render writes page with status. Pending flashes are consumed here.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	t, ok := rd.pages[page]
	if !ok {
		rd.Logger.Error("unknown page", zap.String("page", page))
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}
	if data.User == nil {
		data.User = UserFromContext(r.Context())
	}
	if data.Providers == nil {
		data.Providers = rd.Providers
	}
	if data.Next == "" {
		data.Next = r.URL.Query().Get("next")
	}
	data.Flashes = append(rd.Sessions.PopFlashes(r.Context()), data.Flashes...)
	data.CSRFField = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.Logger.Error("error rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
