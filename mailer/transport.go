package mailer

import (
	"context"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Transport delivers a single rendered message
type Transport interface {
	Deliver(ctx context.Context, msg *Message) error
}

// SMTPTransport sends mail through an SMTP server
type SMTPTransport struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTPTransport(cfg Config) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	return &SMTPTransport{dialer: d, sender: cfg.Sender}
}

func (t *SMTPTransport) Deliver(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.dialer.DialAndSend(buildMessage(t.sender, msg))
}

func buildMessage(sender string, msg *Message) *gomail.Message {
	from := msg.From
	if from == "" {
		from = sender
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	for _, inline := range msg.Inline {
		data := inline.Data
		m.Embed(inline.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-ID":   {"<" + inline.ContentID + ">"},
				"Content-Type": {inline.ContentType},
			}),
		)
	}
	return m
}

// LogTransport writes mails to the logger instead of sending them. Useful in
// development when no SMTP server is configured.
type LogTransport struct {
	Logger *zap.Logger
}

func (t *LogTransport) Deliver(ctx context.Context, msg *Message) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("=== EMAIL ===",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.HTML),
	)
	return nil
}
