package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/txreport/txreport/internal/config"
)

// ErrAuth marks an SMTP authentication failure.
var ErrAuth = errors.New("smtp authentication failed")

const (
	gmailHost = "smtp.gmail.com"
	gmailPort = 587
	sslPort   = 465
)

// Settings is an SMTP transport resolved from configuration.
type Settings struct {
	Host     string
	Port     int
	User     string
	Password string
	TLS      bool // STARTTLS
	SSL      bool // implicit TLS
}

// NewSettings resolves provider defaults. Port 465 always means implicit
// TLS without STARTTLS.
func NewSettings(c config.SMTPConfig) Settings {
	s := Settings{
		Host:     strings.TrimSpace(c.Host),
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		TLS:      c.TLS,
		SSL:      c.SSL,
	}
	if strings.EqualFold(strings.TrimSpace(c.Provider), "gmail") {
		if s.Host == "" {
			s.Host = gmailHost
		}
		if s.Port == 0 {
			s.Port = gmailPort
		}
	}
	if s.Port == sslPort {
		s.SSL = true
		s.TLS = false
	}
	return s
}

// Configured reports whether a host and port are both set.
func (s Settings) Configured() bool {
	return s.Host != "" && s.Port != 0
}

// Addr returns host:port.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPTransport sends mail with net/smtp.
type SMTPTransport struct {
	Settings Settings
	Timeout  time.Duration
}

// NewSMTPTransport returns a transport for s with a 30 second dial timeout.
func NewSMTPTransport(s Settings) *SMTPTransport {
	return &SMTPTransport{Settings: s, Timeout: 30 * time.Second}
}

// Send dials the server, authenticates when credentials are set and
// delivers msg.
func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", t.Settings.Addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, t.Settings.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if t.Settings.TLS && !t.Settings.SSL {
		if err := c.StartTLS(&tls.Config{ServerName: t.Settings.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if t.Settings.User != "" && t.Settings.Password != "" {
		auth := smtp.PlainAuth("", t.Settings.User, t.Settings.Password, t.Settings.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}
	return c.Quit()
}

func (t *SMTPTransport) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: t.Timeout}
	if t.Settings.SSL {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: t.Settings.Host}}
		return td.DialContext(ctx, "tcp", t.Settings.Addr())
	}
	return d.DialContext(ctx, "tcp", t.Settings.Addr())
}
