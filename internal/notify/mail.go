package notify

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/cronguard/cronguard/internal/model"
)

// Mailer delivers reports over SMTP. The first recipient goes into To, any
// further ones into Cc, matching what cron's own MAILTO handling produces.
type Mailer struct {
	cfg    model.MailConfig
	client *mail.Client
}

func NewMailer(cfg model.MailConfig) (*Mailer, error) {
	if len(cfg.Recipients) == 0 {
		return nil, model.ErrNoRecipients
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom()
	}
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	switch {
	case cfg.TLS:
		opts = append(opts, mail.WithSSL())
	case cfg.StartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("building smtp client: %w", err)
	}
	return &Mailer{cfg: cfg, client: client}, nil
}

func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if subject == "" {
		subject = model.DefaultSubject
	}
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("sender address: %w", err)
	}
	if err := msg.ReplyTo(m.cfg.From); err != nil {
		return fmt.Errorf("reply-to address: %w", err)
	}
	if err := msg.To(m.cfg.Recipients[0]); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	if len(m.cfg.Recipients) > 1 {
		if err := msg.Cc(m.cfg.Recipients[1:]...); err != nil {
			return fmt.Errorf("cc address: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}

// DefaultFrom builds the envelope sender the way cron itself does, from the
// current user and hostname.
func DefaultFrom() string {
	name := "root"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return name + "@" + host
}

// ParseCreds splits the first line of a credentials file into username and
// password on the first colon.
func ParseCreds(data string) (string, string, error) {
	line, _, _ := strings.Cut(data, "\n")
	line = strings.TrimRight(line, "\r")
	username, password, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", fmt.Errorf("malformed credentials, want user:password")
	}
	return username, password, nil
}
