package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/somnifex/PromptManager/config"
	"github.com/somnifex/PromptManager/pkg/logger"
)

// Mailer delivers transactional mail over SMTP.
type Mailer struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers a plain-text message. When SMTP is not configured the message
// is dropped with a warning so that callers never fail on mail delivery.
func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.SMTPHost == "" || m.cfg.MailFrom == "" {
		if logger.Log != nil {
			logger.Log.Warn("smtp not configured, dropping mail", zap.String("to", to), zap.String("subject", subject))
		}
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.MailFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if logger.Log != nil {
		logger.Log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	}
	return nil
}
