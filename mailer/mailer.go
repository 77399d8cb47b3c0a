package mailer

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
)

// Config holds mail server settings and the externally visible base URL used
// to build links
type Config struct {
	Host     string `yaml:"host" env:"MAIL_SERVER"`
	Port     int    `yaml:"port" env:"MAIL_PORT" env-default:"465"`
	Username string `yaml:"username" env:"MAIL_USERNAME"`
	Password string `yaml:"password" env:"MAIL_PASSWORD"`
	UseSSL   bool   `yaml:"use_ssl" env:"MAIL_USE_SSL" env-default:"true"`
	Sender   string `yaml:"sender" env:"SENDER"`
	BaseURL  string

	// TokenTTL for links in mails. Zero lets the issuer pick its default.
	TokenTTL time.Duration `yaml:"token_ttl" env:"MAIL_TOKEN_TTL"`
}

// TokenIssuer creates the signed token embedded in each link
type TokenIssuer interface {
	Create(email string, ttl time.Duration) (string, error)
}

// Enqueuer accepts rendered messages for asynchronous delivery
type Enqueuer interface {
	Enqueue(msg *Message) bool
}

// Mailer renders confirm/reset mails and hands them to a queue
type Mailer struct {
	cfg       Config
	tokens    TokenIssuer
	queue     Enqueuer
	templates map[Kind]Template
	layout    *template.Template
	logo      Inline
	logger    *zap.Logger
}

func New(cfg Config, tokens TokenIssuer, queue Enqueuer, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	layout, err := loadLayout()
	if err != nil {
		return nil, fmt.Errorf("error loading mail layout: %w", err)
	}
	logo, err := loadLogo()
	if err != nil {
		return nil, fmt.Errorf("error loading mail logo: %w", err)
	}
	return &Mailer{
		cfg:       cfg,
		tokens:    tokens,
		queue:     queue,
		templates: DefaultTemplates,
		layout:    layout,
		logo:      logo,
		logger:    logger,
	}, nil
}

// Compose issues a fresh token for to and renders the mail of the given kind
func (m *Mailer) Compose(kind Kind, to string) (*Message, error) {
	tmpl, ok := m.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown mail kind: %q", kind)
	}
	token, err := m.tokens.Create(to, m.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("error creating token: %w", err)
	}
	body, err := renderBody(m.layout, tmpl, tmpl.Link(m.cfg.BaseURL, token))
	if err != nil {
		return nil, err
	}
	return &Message{
		Kind:    kind,
		From:    m.cfg.Sender,
		To:      to,
		Subject: tmpl.Subject,
		HTML:    body,
		Inline:  []Inline{m.logo},
	}, nil
}

// Send composes and enqueues a mail. It never waits for delivery; a full
// queue drops the mail after logging it.
func (m *Mailer) Send(ctx context.Context, kind Kind, to string) error {
	msg, err := m.Compose(kind, to)
	if err != nil {
		return err
	}
	if !m.queue.Enqueue(msg) {
		m.logger.Warn("mail queue full, dropping mail", zap.String("kind", string(kind)), zap.String("email", to))
		mailDeliveries.WithLabelValues(string(kind), "dropped").Inc()
		return nil
	}
	m.logger.Debug("mail queued", zap.String("kind", string(kind)), zap.String("email", to))
	return nil
}
