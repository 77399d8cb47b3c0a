package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/mail_layout.html static/logo.png
var assets embed.FS

// Kind selects which mail is sent
type Kind string

const (
	KindConfirm Kind = "confirm"
	KindReset   Kind = "reset"
)

// Template describes one kind of mail. Route is the path of the link in the
// mail with "{token}" standing in for the issued token.
type Template struct {
	Subject     string
	Text        string
	ActionLabel string
	Route       string
}

// DefaultTemplates are the mails the app sends
var DefaultTemplates = map[Kind]Template{
	KindConfirm: {
		Subject:     "Confirm your account!",
		Text:        "confirm your account",
		ActionLabel: "Confirm",
		Route:       "/confirm/{token}",
	},
	KindReset: {
		Subject:     "Reset your password!",
		Text:        "reset your password",
		ActionLabel: "Reset",
		Route:       "/recover/{token}",
	},
}

// Link builds the absolute action URL for token
func (t Template) Link(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + strings.ReplaceAll(t.Route, "{token}", token)
}

// Inline is an attachment referenced from the HTML body by its content id
type Inline struct {
	Name        string
	ContentType string
	ContentID   string
	Data        []byte
}

// Message is a fully rendered mail ready for a Transport
type Message struct {
	Kind    Kind
	From    string
	To      string
	Subject string
	HTML    string
	Inline  []Inline
}

type layoutData struct {
	Text        string
	URL         string
	ActionLabel string
}

func loadLayout() (*template.Template, error) {
	return template.ParseFS(assets, "templates/mail_layout.html")
}

func loadLogo() (Inline, error) {
	data, err := assets.ReadFile("static/logo.png")
	if err != nil {
		return Inline{}, err
	}
	return Inline{Name: "logo.png", ContentType: "image/png", ContentID: "logo", Data: data}, nil
}

func renderBody(layout *template.Template, tmpl Template, link string) (string, error) {
	var buf bytes.Buffer
	err := layout.Execute(&buf, layoutData{Text: tmpl.Text, URL: link, ActionLabel: tmpl.ActionLabel})
	if err != nil {
		return "", fmt.Errorf("error rendering mail: %w", err)
	}
	return buf.String(), nil
}
