package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

// Message is one plain text email
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// build renders the message as a go-mail message with Date and Message-ID set
func (m Message) build() (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}

// Mailer delivers a single message authenticated with secret
type Mailer interface {
	Send(ctx context.Context, secret string, msg Message) error
}

// SMTPMailer sends each message over its own SMTP connection, upgrading
// with STARTTLS when the server offers it and authenticating with PLAIN.
type SMTPMailer struct {
	Host    string
	Port    int
	Timeout time.Duration
	// TLSConfig overrides the STARTTLS configuration, mainly for tests
	TLSConfig *tls.Config
}

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for a host:port address
func NewSMTPMailer(addr string) (*SMTPMailer, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("invalid SMTP address %q", addr), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("invalid SMTP port in %q", addr), err)
	}

	return &SMTPMailer{
		Host:    host,
		Port:    port,
		Timeout: 30 * time.Second,
	}, nil
}

// Send delivers msg. An empty secret skips SMTP authentication.
func (m *SMTPMailer) Send(ctx context.Context, secret string, msg Message) error {
	rendered, err := msg.build()
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.Timeout))
	}
	if m.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(m.TLSConfig))
	}
	if secret != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(msg.From),
			mail.WithPassword(secret),
		)
	}

	client, err := mail.NewClient(m.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", m.Host, err)
	}

	if err := client.DialAndSendWithContext(ctx, rendered); err != nil {
		return fmt.Errorf("send to %s via %s:%d: %w", msg.To, m.Host, m.Port, err)
	}
	return nil
}
