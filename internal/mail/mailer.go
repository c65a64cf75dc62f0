// TrustGuardianHub | 2026
// mailer.go

package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/trustguardianhub/backend/internal/config"
)

// Mailer sends transactional mail over SMTP. When mail is disabled in
// config the send methods log and return nil, which keeps local and test
// environments free of an SMTP dependency.
type Mailer struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

func New(cfg config.MailConfig, logger *slog.Logger) (*Mailer, error) {
	if !cfg.Enabled {
		logger.Info("mail delivery disabled")
		return &Mailer{from: cfg.From, logger: logger}, nil
	}

	client, err := gomail.NewClient(
		cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	return &Mailer{client: client, from: cfg.From, logger: logger}, nil
}

func (m *Mailer) SendPasswordReset(
	ctx context.Context,
	to, username, resetLink string,
) error {
	subject := "Reset your TrustGuardianHub password"
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"We received a request to reset your password. Follow the link "+
			"below within the next hour to choose a new one:\n\n%s\n\n"+
			"If you did not request this, you can safely ignore this email.\n",
		username,
		resetLink,
	)

	return m.send(ctx, to, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.client == nil {
		m.logger.Info("mail delivery skipped",
			"to", to,
			"subject", subject,
		)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set mail to: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
