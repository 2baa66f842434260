package normalize

import (
	"errors"
	"fmt"

	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/month"
)

// Reason classifies why a row did not become a Transaction.
type Reason string

const (
	MissingID         Reason = "missing_id"
	UnparsableDate    Reason = "unparsable_date"
	MonthMismatch     Reason = "month_mismatch"
	NonPositiveAmount Reason = "non_positive_amount"
)

// Reasons lists every rejection reason in check order.
var Reasons = []Reason{MissingID, UnparsableDate, MonthMismatch, NonPositiveAmount}

// Rejection describes a row that was excluded from the report.
type Rejection struct {
	Line   int
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("line %d: %s: %s", r.Line, r.Reason, r.Detail)
}

// ReasonOf returns the rejection reason carried by err, or "" if err is not
// a *Rejection.
func ReasonOf(err error) Reason {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}

// Source column names. Each concept lists its accepted headers by priority.
var (
	ColID       = []string{"transaction_code", "transaction_id", "id"}
	ColDate     = []string{"timestamp", "date"}
	ColAmount   = []string{"amount_BRL", "amount"}
	ColStatus   = []string{"status"}
	ColCategory = []string{"category", "type"}
	ColMerchant = []string{"merchant_id", "merchant"}
	ColNetwork  = []string{"network"}
)

// Normalizer turns raw CSV rows into canonical Transactions.
type Normalizer struct {
	dateLayouts []string
}

// New creates a Normalizer. A nil or empty layouts uses DefaultDateLayouts.
func New(layouts []string) *Normalizer {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &Normalizer{dateLayouts: layouts}
}

// Record normalizes one row for the report month. A non-nil error is always
// a *Rejection; unrecognized labels are defaulted, never rejected.
func (n *Normalizer) Record(row model.RawRow, m month.Month) (model.Transaction, error) {
	reject := func(reason Reason, format string, args ...any) (model.Transaction, error) {
		return model.Transaction{}, &Rejection{Line: row.Line, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	}

	id, ok := row.Lookup(ColID...)
	if !ok {
		return reject(MissingID, "no transaction code")
	}

	rawDate, _ := row.Lookup(ColDate...)
	date, ok := Date(rawDate, n.dateLayouts)
	if !ok {
		return reject(UnparsableDate, "date %q", rawDate)
	}
	if !m.Contains(date) {
		return reject(MonthMismatch, "date %s not in %s", date, m)
	}

	rawAmount, _ := row.Lookup(ColAmount...)
	amount, ok := Amount(rawAmount)
	if !ok {
		return reject(NonPositiveAmount, "amount %q", rawAmount)
	}

	rawStatus, _ := row.Lookup(ColStatus...)
	status, statusInvalid := Status(rawStatus)

	rawCategory, _ := row.Lookup(ColCategory...)
	category, categoryInvalid := Category(rawCategory)

	rawMerchant, _ := row.Lookup(ColMerchant...)
	rawNetwork, _ := row.Lookup(ColNetwork...)

	return model.Transaction{
		ID:                id,
		Date:              date,
		Amount:            amount,
		Currency:          model.Currency,
		Status:            status,
		Category:          category,
		MerchantID:        MerchantID(rawMerchant),
		Network:           Network(rawNetwork),
		StatusDefaulted:   statusInvalid,
		CategoryDefaulted: categoryInvalid,
	}, nil
}
