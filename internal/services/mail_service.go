package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
)

// IMailService is the notification collaborator. Callers invoke it
// fire-and-forget; a send failure never fails the operation that triggered it.
type IMailService interface {
	SendOrderConfirmation(to, orderNumber string, totalMinor int64, currency string) error
}

// SMTPConfig holds SMTP + branding config.
type SMTPConfig struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     int    // e.g. 587
	Username string
	Password string
	From     string // envelope from, e.g. "no-reply@shoply.dev"
	FromName string

	AppName string // used in the mail body
}

const orderConfirmationHTML = `<html><body>
<h2>{{.AppName}} — order confirmed</h2>
<p>Thanks for your purchase! Your order <strong>{{.OrderNumber}}</strong> is confirmed.</p>
<p>Total charged: <strong>{{.Total}}</strong></p>
<p>We will email you again when it ships.</p>
</body></html>`

type smtpMailService struct {
	cfg SMTPConfig
	tpl *template.Template
}

func NewSMTPMailService(cfg SMTPConfig) (IMailService, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("missing SMTP configuration")
	}
	return &smtpMailService{
		cfg: cfg,
		tpl: template.Must(template.New("orderConfirmation").Parse(orderConfirmationHTML)),
	}, nil
}

func (s *smtpMailService) SendOrderConfirmation(to, orderNumber string, totalMinor int64, currency string) error {
	var body bytes.Buffer
	err := s.tpl.Execute(&body, map[string]string{
		"AppName":     s.cfg.AppName,
		"OrderNumber": orderNumber,
		"Total":       formatMinor(totalMinor, currency),
	})
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: Order %s confirmed\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.FromName, s.cfg.From, to, orderNumber, body.String())

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

// logMailService is the fallback when SMTP is not configured, so local runs
// and tests never need a mail server.
type logMailService struct{}

func NewLogMailService() IMailService {
	return &logMailService{}
}

func (s *logMailService) SendOrderConfirmation(to, orderNumber string, totalMinor int64, currency string) error {
	log.Printf("mail: order %s confirmed for %s (%s)", orderNumber, to, formatMinor(totalMinor, currency))
	return nil
}

func formatMinor(amountMinor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, amountMinor/100, amountMinor%100)
}
