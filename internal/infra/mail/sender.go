package mail

import (
	"fmt"
	"net/smtp"

	je "github.com/jordan-wright/email"
)

type EmailSender interface {
	SendEmail(subject, content string, to, cc, bcc, attachFiles []string) error
}

type smtpSender struct {
	name     string
	address  string
	password string
	host     string
	port     int
}

// NewSMTPSender SMTP 寄件者，gmail 的話 host=smtp.gmail.com port=587
func NewSMTPSender(name, address, password, host string, port int) EmailSender {
	return &smtpSender{
		name:     name,
		address:  address,
		password: password,
		host:     host,
		port:     port,
	}
}

func (s *smtpSender) SendEmail(subject, content string, to, cc, bcc, attachFiles []string) error {
	e := je.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", s.name, s.address)
	e.Subject = subject
	e.HTML = []byte(content)
	e.To = to
	e.Cc = cc
	e.Bcc = bcc

	for _, f := range attachFiles {
		if _, err := e.AttachFile(f); err != nil {
			return fmt.Errorf("failed to attach file %s: %w", f, err)
		}
	}

	auth := smtp.PlainAuth("", s.address, s.password, s.host)
	return e.Send(fmt.Sprintf("%s:%d", s.host, s.port), auth)
}
