package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"eventhub/pkg/logger"
)

// Email is a rendered message ready to send
type Email struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailService sends rendered emails
type EmailService interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

// Validate checks the settings required to reach the SMTP server
func (c *SMTPConfig) Validate() error {
	if c == nil {
		return errors.New("SMTP config is nil")
	}
	if c.Host == "" {
		return errors.New("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return errors.New("from email is required")
	}
	return nil
}

// SMTPEmailService sends mail through an SMTP relay using STARTTLS
type SMTPEmailService struct {
	config *SMTPConfig
	log    *logger.Logger
}

func NewSMTPEmailService(config *SMTPConfig, log *logger.Logger) (*SMTPEmailService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPEmailService{config: config, log: log.WithComponent("smtp")}, nil
}

func (s *SMTPEmailService) Send(ctx context.Context, email Email) error {
	message := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, email.To, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{email.To}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.InfoContext(ctx, "Email sent", "to", email.To, "subject", email.Subject)
	return nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage creates a multipart/alternative message with text and html parts
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	to := email.To
	if email.ToName != "" {
		to = fmt.Sprintf("%s <%s>", email.ToName, email.To)
	}
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if email.TextBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, email.TextBody)
	}
	if email.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, email.HTMLBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogEmailService logs emails instead of sending them. Used when SMTP is not configured.
type LogEmailService struct {
	log *logger.Logger
}

func NewLogEmailService(log *logger.Logger) *LogEmailService {
	return &LogEmailService{log: log.WithComponent("email")}
}

func (s *LogEmailService) Send(ctx context.Context, email Email) error {
	s.log.InfoContext(ctx, "Email (not sent)", "to", email.To, "subject", email.Subject)
	return nil
}

// Recipient is the person a booking email is addressed to
type Recipient struct {
	Email      string
	Name       string
	EventTitle string
}

type bookingEmailData struct {
	Name       string
	EventTitle string
	BookingID  string
	NumTickets int
	Amount     string
	Headline   string
}

var bookingHTML = template.Must(template.New("booking").Parse(`<h2>{{.Headline}}</h2>
<p>Hi {{.Name}},</p>
<p>Event: <strong>{{.EventTitle}}</strong></p>
<p>Booking: <strong>{{.BookingID}}</strong></p>
<p>Tickets: {{.NumTickets}}</p>
<p>Amount: {{.Amount}}</p>
<p>Best regards,<br>EventHub Team</p>`))

func headline(t BookingEventType) string {
	switch t {
	case BookingEventConfirmed:
		return "Booking Confirmed"
	case BookingEventCancelled:
		return "Booking Cancelled"
	case BookingEventRefunded:
		return "Refund Processed"
	}
	return "Booking Update"
}

// RenderBookingEmail builds the email for a booking lifecycle message
func RenderBookingEmail(event BookingEvent, to Recipient) (Email, error) {
	data := bookingEmailData{
		Name:       to.Name,
		EventTitle: to.EventTitle,
		BookingID:  event.BookingID,
		NumTickets: event.NumTickets,
		Amount:     FormatAmount(event.TotalPrice, event.Currency),
		Headline:   headline(event.Type),
	}

	var html bytes.Buffer
	if err := bookingHTML.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("failed to render email: %w", err)
	}

	text := fmt.Sprintf("Hi %s,\n\n%s\nEvent: %s\nBooking: %s\nTickets: %d\nAmount: %s\n\nBest regards,\nEventHub Team",
		data.Name, data.Headline, data.EventTitle, data.BookingID, data.NumTickets, data.Amount)

	return Email{
		To:       to.Email,
		ToName:   to.Name,
		Subject:  event.Subject(to.EventTitle),
		HTMLBody: html.String(),
		TextBody: text,
	}, nil
}
