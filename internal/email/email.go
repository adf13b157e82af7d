// Package email formats rental notices and sends them over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/rental"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Sender delivers a plain-text message.
type Sender func(to []string, subject, body string) error

// NewSender returns a Sender bound to cfg, or nil when SMTP is not configured.
func NewSender(cfg SMTPConfig) Sender {
	if !cfg.IsConfigured() {
		return nil
	}
	return func(to []string, subject, body string) error {
		return Send(cfg, to, subject, body)
	}
}

// FormatRentalNotice builds the subject and plain-text body telling an
// owner that one of their items was rented.
func FormatRentalNotice(it *item.Item, r *rental.Rental, baseURL string) (string, string) {
	subject := fmt.Sprintf("Your %s was rented", it.Title)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi,\n\n%s rented your item:\n\n", r.RenterEmail)
	fmt.Fprintf(&buf, "  %s\n", it.Title)

	var details []string
	details = append(details, it.Category.Label())
	if label, ok := listing.DistrictLabel(it.Location); ok {
		details = append(details, label)
	}
	fmt.Fprintf(&buf, "  %s\n\n", strings.Join(details, " | "))

	fmt.Fprintf(&buf, "From:  %s\n", r.StartDate.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&buf, "Until: %s\n", r.EndDate.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&buf, "Cost:  %s won\n", humanize.Comma(r.TotalCost))
	fmt.Fprintf(&buf, "Units still available: %d of %d\n\n", it.AvailableQuantity, it.Quantity)

	if baseURL != "" {
		fmt.Fprintf(&buf, "See your items at %s/mypage\n\n", strings.TrimSuffix(baseURL, "/"))
	}

	fmt.Fprintf(&buf, "Thanks!\n")

	return subject, buf.String()
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
