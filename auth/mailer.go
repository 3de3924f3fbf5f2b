package auth

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"dm-lab/domain"
)

// SMTPMailer delivers one-time codes over plain SMTP.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(host string, port int, from, username, password string) SMTPMailer {
	var a smtp.Auth
	if username != "" {
		a = smtp.PlainAuth("", username, password, host)
	}
	return SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: a,
	}
}

func (m SMTPMailer) SendCode(to, code string, purpose domain.Purpose) error {
	body := fmt.Sprintf("To: %s\r\nSubject: Your code for %s\r\n\r\n"+
		"Your code is: %s\r\n\r\nIt expires in 10 minutes. If you didn't request this, ignore it.\r\n",
		to, purpose, code)
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(body))
}

// LogMailer prints codes instead of sending them. Development only.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) SendCode(to, code string, purpose domain.Purpose) error {
	m.Log.Info("Code issued", "to", to, "purpose", purpose.String(), "code", code)
	return nil
}
