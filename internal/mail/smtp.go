package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/taskforge/backend/internal/config"
)

// Sender delivers transactional mail over SMTP.
type Sender struct {
	cfg         config.SMTPConfig
	appName     string
	frontendURL string
}

// NewSender validates the SMTP settings and builds a sender.
func NewSender(cfg config.SMTPConfig, appName, frontendURL string) (*Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &Sender{
		cfg:         cfg,
		appName:     appName,
		frontendURL: frontendURL,
	}, nil
}

// SendVerification renders and sends the email-verification message. The
// token was already issued by the caller; this only formats and transmits.
func (s *Sender) SendVerification(ctx context.Context, toEmail, username, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	subject := fmt.Sprintf("%s: verify your email address", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Welcome to %s. Please confirm your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires shortly. If you did not create an account, ignore this message.\n",
		username, s.appName, verifyURL,
	)

	return s.send(ctx, toEmail, subject, body)
}

func (s *Sender) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, gomail.WithSSL())
		}
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
