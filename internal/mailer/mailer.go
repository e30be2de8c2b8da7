// Package mailer sends transactional email over SMTP.
package mailer

import (
	"fmt"

	"github.com/go-gomail/gomail"
)

// Sender sends transactional email. Implementations must be safe for
// concurrent use.
type Sender interface {
	// SendVerification sends the email-verification link to a new user.
	SendVerification(toEmail, fullName, verifyURL string) error

	// SendAppointmentStatus informs a user that their appointment changed state.
	SendAppointmentStatus(toEmail, fullName, status, date, startTime string) error
}

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender implements Sender using gomail over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTP-backed mail sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendVerification sends the email-verification link to a new user.
func (s *SMTPSender) SendVerification(toEmail, fullName, verifyURL string) error {
	body := fmt.Sprintf(
		"<p>Hola %s,</p>"+
			"<p>Gracias por registrarte. Para activar tu cuenta, haz clic en el siguiente enlace:</p>"+
			"<p><a href=%q>Verificar mi correo</a></p>"+
			"<p>Este enlace expira en 24 horas.</p>",
		fullName, verifyURL,
	)

	return s.send(toEmail, "Verifica tu correo electrónico", body)
}

// SendAppointmentStatus informs a user that their appointment changed state.
func (s *SMTPSender) SendAppointmentStatus(toEmail, fullName, status, date, startTime string) error {
	body := fmt.Sprintf(
		"<p>Hola %s,</p>"+
			"<p>Tu cita del %s a las %s cambió de estado: <strong>%s</strong>.</p>",
		fullName, date, startTime, status,
	)

	return s.send(toEmail, "Actualización de tu cita", body)
}

func (s *SMTPSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	return nil
}
