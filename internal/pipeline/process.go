package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/txreport/txreport/internal/importer"
	"github.com/txreport/txreport/internal/logger"
	"github.com/txreport/txreport/internal/mailer"
	"github.com/txreport/txreport/internal/month"
	"github.com/txreport/txreport/internal/report"
)

// Run statuses reported to callers.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request asks for the report of one month.
type Request struct {
	Month     string
	Input     string // CSV file or directory of CSV files
	Output    string // base output directory
	SendEmail bool
}

// Outcome describes a finished ProcessMonth call.
type Outcome struct {
	RunID       string
	Status      string
	Month       month.Month
	ReportPath  string
	SummaryPath string
	Summary     report.Summary
	Result      Result
	Email       *mailer.Result
}

// Sender delivers the report email.
type Sender interface {
	SendReport(ctx context.Context, s report.Summary, xmlReport []byte, dir string) (*mailer.Result, error)
}

// Processor runs whole months end to end: read, normalize, write the
// artifacts and optionally send the email.
type Processor struct {
	parser importer.Parser
	opts   Options
	sender Sender
	now    func() time.Time
	newID  func() string

	// One writer per month folder, so a report.xml and summary.json pair
	// always comes from the same run.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewProcessor creates a Processor. sender may be nil when email is never
// requested.
func NewProcessor(parser importer.Parser, opts Options, sender Sender) *Processor {
	return &Processor{
		parser: parser,
		opts:   opts,
		sender: sender,
		now:    time.Now,
		newID:  uuid.NewString,
		locks:  make(map[string]*sync.Mutex),
	}
}

// ProcessMonth validates the month before touching the input, runs the
// pipeline and writes report.xml and summary.json under
// <output>/<YYYYMM>/. Either both files are written or neither is.
func (p *Processor) ProcessMonth(ctx context.Context, req Request) (Outcome, error) {
	m, err := month.Parse(req.Month)
	if err != nil {
		return Outcome{}, err
	}

	runID := p.newID()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Str("month", m.String()).Logger()
	ctx = logger.WithContext(ctx, log)
	out := Outcome{RunID: runID, Status: StatusFailed, Month: m}

	rows, err := importer.ReadInput(p.parser, req.Input)
	if err != nil {
		return out, fmt.Errorf("reading input: %w", err)
	}
	log.Info().Str("input", req.Input).Int("rows", len(rows)).Msg("input loaded")

	res, err := Run(ctx, rows, m, p.opts)
	if err != nil {
		return out, fmt.Errorf("running pipeline: %w", err)
	}
	out.Result = res

	generatedAt := p.now()
	var xmlBuf, jsonBuf bytes.Buffer
	if err := report.WriteXML(&xmlBuf, m, res.Transactions, generatedAt); err != nil {
		return out, err
	}
	summary := report.NewSummary(runID, m, res.Collection, res.Metrics, generatedAt)
	if err := report.WriteSummary(&jsonBuf, summary); err != nil {
		return out, err
	}

	dir := filepath.Join(req.Output, m.Folder())
	reportPath, summaryPath, err := p.writeArtifacts(ctx, dir, xmlBuf.Bytes(), jsonBuf.Bytes())
	if err != nil {
		return out, err
	}

	out.Status = StatusCompleted
	out.ReportPath = reportPath
	out.SummaryPath = summaryPath
	out.Summary = summary

	log.Info().
		Int("rows_in", summary.RowsIn).
		Int("rows_out", summary.RowsOut).
		Int("duplicates", summary.DuplicatesRemoved).
		Int("excluded", summary.RowsExcluded).
		Str("total", summary.TotalAmount).
		Str("report", reportPath).
		Msg("report written")

	if req.SendEmail {
		out.Email = p.sendEmail(ctx, summary, xmlBuf.Bytes(), dir)
	}
	return out, nil
}

// writeArtifacts writes both files into dir while holding the folder lock.
// The report is removed again when the summary cannot be written.
func (p *Processor) writeArtifacts(ctx context.Context, dir string, xmlReport, summary []byte) (string, string, error) {
	unlock := p.lockFolder(dir)
	defer unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}
	reportPath := filepath.Join(dir, report.ReportFile)
	summaryPath := filepath.Join(dir, report.SummaryFile)
	if err := report.WriteFileAtomic(reportPath, xmlReport); err != nil {
		return "", "", err
	}
	if err := report.WriteFileAtomic(summaryPath, summary); err != nil {
		if rmErr := os.Remove(reportPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log := logger.FromContext(ctx)
			log.Warn().Err(rmErr).Str("path", reportPath).Msg("removing partial report")
		}
		return "", "", err
	}
	return reportPath, summaryPath, nil
}

// lockFolder locks dir for this Processor and returns the unlock func.
func (p *Processor) lockFolder(dir string) func() {
	key, err := filepath.Abs(dir)
	if err != nil {
		key = filepath.Clean(dir)
	}

	p.locksMu.Lock()
	mu, ok := p.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		p.locks[key] = mu
	}
	p.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// sendEmail never fails the run; delivery problems end up in the Result.
func (p *Processor) sendEmail(ctx context.Context, s report.Summary, xmlReport []byte, dir string) *mailer.Result {
	log := logger.FromContext(ctx)
	if p.sender == nil {
		return &mailer.Result{Status: mailer.StatusFailed, Message: "email delivery is not configured"}
	}
	res, err := p.sender.SendReport(ctx, s, xmlReport, dir)
	if err != nil {
		log.Error().Err(err).Msg("email evidence could not be written")
		return &mailer.Result{Status: mailer.StatusFailed, Message: err.Error()}
	}
	log.Info().Str("status", string(res.Status)).Msg("email processed")
	return res
}
