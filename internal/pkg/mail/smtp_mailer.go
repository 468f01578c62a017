package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ErrAuthNotOffered is returned when credentials are configured but the
// relay does not advertise AUTH.
var ErrAuthNotOffered = errors.New("smtp server does not offer AUTH")

// Message is a plain-text mail. ID doubles as Message-ID and log key.
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Body    string
}

func NewMessage(from, to, subject, body string) Message {
	return Message{
		ID:      uuid.New().String(),
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
	}
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer sends emails via SMTP. One connection per message; it keeps no
// state between sends and is safe for concurrent use.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	sender := msg.From
	if sender == "" {
		sender = m.cfg.Username
	}
	if sender == "" {
		sender = "no-reply@localhost"
		fiberlog.Warnf("Message %s has no sender, using default sender: %s", msg.ID, sender)
	}
	msg.From = sender

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(m.cfg.Timeout)
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake with %s: %w", addr, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			fiberlog.Warnf("[Mail] credentials configured but %s does not offer AUTH", addr)
			return fmt.Errorf("%w: %s", ErrAuthNotOffered, addr)
		}
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("mail from %s: %w", msg.From, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to %s: %w", msg.To, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(msg, m.cfg.Host, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return c.Quit()
}

// buildMessage renders headers and a CRLF body. Header values come from
// customer input, so line breaks are stripped from them.
func buildMessage(msg Message, host string, now time.Time) []byte {
	var b bytes.Buffer
	writeHeader := func(k, v string) {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headerValue(v))
	}
	writeHeader("From", msg.From)
	writeHeader("To", msg.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)))
	writeHeader("Date", now.Format(time.RFC1123Z))
	if msg.ID != "" {
		writeHeader("Message-ID", fmt.Sprintf("<%s@%s>", msg.ID, host))
	}
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/plain; charset=UTF-8")
	writeHeader("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}
