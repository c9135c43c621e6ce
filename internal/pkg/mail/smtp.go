package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

var (
	ErrMissingHost   = errors.New("mail: smtp host and port are required")
	ErrNoRecipients  = errors.New("mail: message has no recipients")
	ErrNoSender      = errors.New("mail: message has no sender")
	ErrNoMessageBody = errors.New("mail: message has no body")
	ErrInvalidAddr   = errors.New("mail: invalid address")
)

// Permanent reports whether sending again cannot succeed: the message is
// malformed or the server answered with a permanent rejection.
func Permanent(err error) bool {
	for _, target := range []error{ErrNoRecipients, ErrNoSender, ErrNoMessageBody, ErrInvalidAddr} {
		if errors.Is(err, target) {
			return true
		}
	}

	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return !sendErr.IsTemp()
	}

	return false
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender, "Name <address>" or a bare address.
	From string
	// SSL selects implicit TLS (port 465). Otherwise STARTTLS is used when
	// the server offers it.
	SSL     bool
	Timeout time.Duration
}

// SMTP dials a fresh connection per message; sends are infrequent and this
// keeps the sender free of connection state.
type SMTP struct {
	client *gomail.Client
	from   string
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrMissingHost
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.SSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send %q: %w", msg.Subject, err)
	}
	return nil
}

func (s *SMTP) build(msg Message) (*gomail.Msg, error) {
	if msg.recipients() == 0 {
		return nil, ErrNoRecipients
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, ErrNoMessageBody
	}

	from := msg.From
	if from == "" {
		from = s.from
	}
	if from == "" {
		return nil, ErrNoSender
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("%w: sender: %w", ErrInvalidAddr, err)
	}
	if err := setAddrs(m.To, msg.To); err != nil {
		return nil, err
	}
	if err := setAddrs(m.Cc, msg.Cc); err != nil {
		return nil, err
	}
	if err := setAddrs(m.Bcc, msg.Bcc); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

func setAddrs(set func(...string) error, addrs []string) error {
	if len(addrs) == 0 {
		return nil
	}
	if err := set(addrs...); err != nil {
		return fmt.Errorf("%w: recipient: %w", ErrInvalidAddr, err)
	}
	return nil
}

// Close is a no-op since connections are not kept between sends.
func (s *SMTP) Close() error {
	return nil
}
