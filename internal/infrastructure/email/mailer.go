// Package email sends transactional HTML mail over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Message is a rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// SMTPMailer implements the task Mailer port
type SMTPMailer struct {
	cfg       config.EmailConfig
	clientURL string
	send      sendFunc
	logger    *zap.Logger
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.EmailConfig, clientURL string, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SMTPMailer{cfg: cfg, clientURL: strings.TrimRight(clientURL, "/"), logger: logger.Named("email")}
	m.send = smtp.SendMail
	if cfg.UseTLS {
		m.send = m.sendImplicitTLS
	}
	return m
}

// SendTaskAssigned notifies an assignee about a new task
func (m *SMTPMailer) SendTaskAssigned(ctx context.Context, to *identity.User, t *task.Task) error {
	if to == nil || to.Email == "" {
		return errors.New("recipient has no email address")
	}
	msg, err := RenderTaskAssigned(to, t, m.clientURL)
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}

// Send delivers msg. ctx only bounds the wait; SMTP itself is not cancellable.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := m.build(msg)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	start := time.Now()
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	m.logger.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

func (m *SMTPMailer) build(msg *Message) ([]byte, error) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes(), nil
}

// sendImplicitTLS delivers over a TLS connection from the first byte (port 465)
func (m *SMTPMailer) sendImplicitTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// DisabledMailer is used when no SMTP host is configured
type DisabledMailer struct {
	Logger *zap.Logger
}

func (d DisabledMailer) SendTaskAssigned(_ context.Context, to *identity.User, t *task.Task) error {
	if d.Logger != nil {
		d.Logger.Debug("Email disabled, skipping task assignment mail",
			zap.String("user_id", to.ID),
			zap.String("task_id", t.ID.String()),
		)
	}
	return nil
}
