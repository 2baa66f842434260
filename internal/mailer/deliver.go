package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/txreport/txreport/internal/config"
	"github.com/txreport/txreport/internal/logger"
	"github.com/txreport/txreport/internal/report"
)

// Status is the outcome of a delivery attempt.
type Status string

const (
	StatusSaved  Status = "saved"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

const (
	defaultFrom = "noreply@example.com"
	authHint    = "Authentication failed. For Gmail, enable 2-Step Verification and use an App Password."
)

// Result describes where a report email ended up.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Mailer composes report emails and delivers them, falling back to .eml
// files on disk.
type Mailer struct {
	from      string
	to        []string
	settings  Settings
	transport Transport
	now       func() time.Time
}

// New builds a Mailer from configuration using the SMTP transport.
func New(cfg config.EmailConfig) *Mailer {
	m := NewWithTransport(cfg, nil)
	m.transport = NewSMTPTransport(m.settings)
	return m
}

// NewWithTransport is New with an explicit transport.
func NewWithTransport(cfg config.EmailConfig, t Transport) *Mailer {
	s := NewSettings(cfg.SMTP)
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = s.User
	}
	if from == "" {
		from = defaultFrom
	}
	return &Mailer{
		from:      from,
		to:        splitAddrs(cfg.To),
		settings:  s,
		transport: t,
		now:       time.Now,
	}
}

// Compose builds the report message for s with the XML report attached.
func (m *Mailer) Compose(s report.Summary, xmlReport []byte) Message {
	return Message{
		From:    m.from,
		To:      m.to,
		Subject: Subject(s.Month),
		Date:    m.now(),
		Body:    Body(s),
		Attachment: &Attachment{
			Name:        report.ReportFile,
			ContentType: "application/xml",
			Data:        xmlReport,
		},
	}
}

// SendReport delivers the report email for s and records evidence in dir.
// Transport failures are reported in the Result; the returned error is
// only set when nothing could be written to dir.
func (m *Mailer) SendReport(ctx context.Context, s report.Summary, xmlReport []byte, dir string) (*Result, error) {
	log := logger.FromContext(ctx)
	tag := strings.ReplaceAll(s.Month, "-", "")

	raw, err := m.Compose(s, xmlReport).Bytes()
	if err != nil {
		return nil, fmt.Errorf("composing email: %w", err)
	}

	if !m.settings.Configured() {
		path := filepath.Join(dir, fmt.Sprintf("email_%s.eml", tag))
		if err := report.WriteFileAtomic(path, raw); err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("smtp not configured, email saved")
		return &Result{
			Status:  StatusSaved,
			Message: "SMTP not configured; email saved to " + path,
			Path:    path,
		}, nil
	}

	sendErr := m.transport.Send(ctx, m.from, m.to, raw)
	if sendErr == nil {
		path := filepath.Join(dir, fmt.Sprintf("email_evidence_%s_SENT.eml", tag))
		if err := report.WriteFileAtomic(path, raw); err != nil {
			return nil, err
		}
		log.Info().Strs("to", m.to).Str("path", path).Msg("email sent")
		return &Result{
			Status:  StatusSent,
			Message: fmt.Sprintf("Email sent to %s (copy saved to %s)", strings.Join(m.to, ", "), path),
			Path:    path,
		}, nil
	}

	log.Warn().Err(sendErr).Str("host", m.settings.Host).Msg("email delivery failed")

	if errors.Is(sendErr, ErrAuth) {
		path := filepath.Join(dir, fmt.Sprintf("email_%s_AUTHFAILED.eml", tag))
		if err := report.WriteFileAtomic(path, raw); err != nil {
			return nil, err
		}
		return &Result{
			Status:  StatusFailed,
			Message: fmt.Sprintf("%s Saved EML to %s. Error: %v", authHint, path, sendErr),
			Path:    path,
		}, nil
	}

	path := filepath.Join(dir, fmt.Sprintf("email_%s_FAILED.eml", tag))
	if err := report.WriteFileAtomic(path, raw); err != nil {
		return nil, err
	}
	logPath := filepath.Join(dir, fmt.Sprintf("email_error_%s.log", tag))
	entry := fmt.Sprintf("Error sending email:\n%v\n", sendErr)
	if err := os.WriteFile(logPath, []byte(entry), 0o644); err != nil {
		return nil, fmt.Errorf("writing email error log: %w", err)
	}
	return &Result{
		Status:  StatusFailed,
		Message: fmt.Sprintf("Saved EML to %s; see %s for details.", path, logPath),
		Path:    path,
	}, nil
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
