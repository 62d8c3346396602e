package app

import "github.com/alumnethq/alumnet/pkg/mail"

// SMTPSettings maps the email section onto the mailer's settings struct. A
// zero port falls back to the submission port, so configuring just a host is
// enough to enable delivery.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	settings := mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
	if settings.Port == 0 {
		settings.Port = 587
	}
	return settings
}
