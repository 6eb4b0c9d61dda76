package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/illegalcall/course-notify/internal/models"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp configuration not complete")

// TLS policies accepted in Config.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSPolicy string
	Timeout   time.Duration
}

// SMTP sends notifications through an SMTP relay.
type SMTP struct {
	cfg    Config
	logger zerolog.Logger
}

func NewSMTP(cfg Config, logger zerolog.Logger) *SMTP {
	return &SMTP{cfg: cfg, logger: logger}
}

// Send delivers one email. The plain text body is always included; the HTML body is
// added as an alternative part when the recipient accepts HTML and it is not blank.
func (s *SMTP) Send(ctx context.Context, email models.Email) error {
	if s.cfg.Host == "" {
		return ErrNotConfigured
	}

	msg, err := BuildMessage(email)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", email.To.Email).Str("subject", email.Subject).Msg("Email sent successfully")
	return nil
}

func (s *SMTP) options() []gomail.Option {
	policy := gomail.TLSOpportunistic
	switch strings.ToLower(s.cfg.TLSPolicy) {
	case TLSMandatory:
		policy = gomail.TLSMandatory
	case TLSNone:
		policy = gomail.NoTLS
	}

	opts := []gomail.Option{gomail.WithTLSPolicy(policy)}
	if s.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.Port))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// BuildMessage turns a rendered notification into a MIME message.
func BuildMessage(email models.Email) (*gomail.Msg, error) {
	if email.To.Email == "" {
		return nil, errors.New("recipient is required")
	}

	m := gomail.NewMsg()
	if err := setAddress(m.From, m.FromFormat, email.From); err != nil {
		return nil, fmt.Errorf("failed to set from: %w", err)
	}
	if err := setAddress(func(addr string) error { return m.To(addr) }, m.AddToFormat, email.To); err != nil {
		return nil, fmt.Errorf("failed to set to: %w", err)
	}

	m.Subject(email.Subject)
	m.SetBodyString(gomail.TypeTextPlain, email.PlainBody)
	if email.HTML && strings.TrimSpace(email.HTMLBody) != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, email.HTMLBody)
	}
	return m, nil
}

func setAddress(plain func(string) error, named func(string, string) error, addr models.Address) error {
	if addr.Name == "" {
		return plain(addr.Email)
	}
	return named(addr.Name, addr.Email)
}
