package transport

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/vaishnavucv/droid-proctoring/internal/config"
)

type SMTPMailTransport struct {
	config config.SMTP
}

func NewSMTP(config config.SMTP) *SMTPMailTransport {
	return &SMTPMailTransport{config: config}
}

func (m *SMTPMailTransport) Send(mail *email.Email) error {
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	return mail.Send(fmt.Sprintf("%s:%d", m.config.Host, m.config.Port), auth)
}
