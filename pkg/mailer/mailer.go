// Package mailer sends the registration verification email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log"
	"text/template"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP connection details.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var verificationBody = template.Must(template.New("verification").Parse(`Hi {{.Name}},

Thanks for registering for the hackathon. Please confirm your email address by opening the link below:

{{.Link}}

If you did not sign up, you can ignore this message.
`))

// SMTPMailer delivers mail through an SMTP relay using STARTTLS.
type SMTPMailer struct {
	cfg    Config
	client *mail.Client
}

// New creates an SMTPMailer. No connection is made until a message is sent.
func New(cfg Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPMailer{cfg: cfg, client: client}, nil
}

// BuildVerificationMessage renders the verification email.
func BuildVerificationMessage(from, to, name, link string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject("Confirm your hackathon registration")
	if err := msg.SetBodyTextTemplate(verificationBody, struct{ Name, Link string }{name, link}); err != nil {
		return nil, fmt.Errorf("failed to render verification email: %w", err)
	}
	return msg, nil
}

// SendVerification mails the verification link to the registrant.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, name, link string) error {
	msg, err := BuildVerificationMessage(m.cfg.From, to, name, link)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	log.Printf("Sent verification email to %s", to)
	return nil
}
