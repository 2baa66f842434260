package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/txreport/txreport/internal/collect"
	"github.com/txreport/txreport/internal/metrics"
	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/month"
	"github.com/txreport/txreport/internal/normalize"
)

// SummaryFile is the JSON summary name inside a month folder.
const SummaryFile = "summary.json"

// Summary is the run digest written next to the XML report. Amounts are
// fixed two-decimal strings.
type Summary struct {
	RunID       string `json:"run_id"`
	Month       string `json:"month"`
	GeneratedAt string `json:"generated_at"`

	RowsIn                 int `json:"rows_in"`
	RowsOut                int `json:"rows_out"`
	RowsExcluded           int `json:"rows_excluded"`
	DuplicatesRemoved      int `json:"duplicates_removed"`
	MissingID              int `json:"missing_id"`
	InvalidDates           int `json:"invalid_dates"`
	MonthMismatch          int `json:"month_mismatch"`
	BelowThresholdExcluded int `json:"below_threshold_excluded"`
	InvalidLabels          int `json:"invalid_labels"`

	Currency          string            `json:"currency"`
	TotalAmount       string            `json:"total_amount"`
	TotalTransactions int               `json:"total_transactions"`
	TotalsByCategory  map[string]string `json:"totals_by_category"`
	CountByCategory   map[string]int    `json:"count_by_category"`
	CountByStatus     map[string]int    `json:"count_by_status"`
}

// NewSummary digests a collected run and its metrics.
func NewSummary(runID string, m month.Month, c collect.Collection, rm metrics.RunMetrics, generatedAt time.Time) Summary {
	s := Summary{
		RunID:       runID,
		Month:       m.String(),
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),

		RowsIn:                 c.RowsIn,
		RowsOut:                c.RowsOut(),
		RowsExcluded:           c.RejectedTotal(),
		DuplicatesRemoved:      c.Duplicates,
		MissingID:              c.Rejected[normalize.MissingID],
		InvalidDates:           c.Rejected[normalize.UnparsableDate],
		MonthMismatch:          c.Rejected[normalize.MonthMismatch],
		BelowThresholdExcluded: c.Rejected[normalize.NonPositiveAmount],
		InvalidLabels:          rm.InvalidLabels,

		Currency:          model.Currency,
		TotalAmount:       rm.Sum().StringFixed(2),
		TotalTransactions: rm.TotalTransactions,
		TotalsByCategory:  make(map[string]string, len(rm.TotalsByCategory)),
		CountByCategory:   make(map[string]int, len(rm.CountByCategory)),
		CountByStatus:     make(map[string]int, len(rm.CountByStatus)),
	}
	for cat, v := range rm.TotalsByCategory {
		s.TotalsByCategory[string(cat)] = v.StringFixed(2)
	}
	for cat, n := range rm.CountByCategory {
		s.CountByCategory[string(cat)] = n
	}
	for st, n := range rm.CountByStatus {
		s.CountByStatus[string(st)] = n
	}
	return s
}

// WriteSummary encodes s as indented JSON.
func WriteSummary(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}
