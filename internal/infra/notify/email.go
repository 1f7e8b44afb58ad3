package notify

import (
	"context"

	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"

	"github.com/wneessen/go-mail"
)

// EmailSender delivers plain-text notification mail over SMTP.
type EmailSender struct {
	client *mail.Client
	from   string
}

func NewEmailSender(cfg config.SMTPConfig) (*EmailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
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
		return nil, errs.Wrap(err, "failed to initialize smtp client")
	}
	return &EmailSender{client: client, from: cfg.From}, nil
}

func (s *EmailSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return errs.Wrap(err, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return errs.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errs.Wrap(err, "smtp delivery failed")
	}
	return nil
}
