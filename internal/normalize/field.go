package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/txreport/txreport/internal/model"
)

// ISODate is the canonical date layout.
const ISODate = "2006-01-02"

// plainNumber is the only shape accepted once separators are resolved.
// Exponent forms such as "1e3" are rejected.
var plainNumber = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// DefaultNetwork is used when the network column is absent or not an integer.
const DefaultNetwork = 1

// DefaultDateLayouts are the accepted input date layouts, tried in order.
// Slash and dash dates with the year last are day-first.
var DefaultDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	ISODate,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

var statusTable = map[string]model.Status{
	"approved":   model.StatusApproved,
	"chargeback": model.StatusChargeback,
	"reversed":   model.StatusReversed,
	"refunded":   model.StatusRefunded,
	"pending":    model.StatusPending,
	"declined":   model.StatusDeclined,
}

var categoryTable = map[string]model.Category{
	"DEBIT":  model.CategoryDebit,
	"CREDIT": model.CategoryCredit,
}

// Date parses raw with the first matching layout and renders it as YYYY-MM-DD.
func Date(raw string, layouts []string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}

// Amount parses a money string such as "150.50", "1.234,56" or "R$ 10,00".
// The result is rounded half-even to cents. ok is false when raw is not a
// number or is not strictly positive.
func Amount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "BRL")
	s = strings.TrimSuffix(s, "BRL")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	s = resolveSeparators(s)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	d = d.RoundBank(2)
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// resolveSeparators rewrites s so that "." is the only decimal separator and
// thousands separators are gone.
func resolveSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// Status maps raw onto the closed status set. Unmatched values become
// StatusUnknown with invalid set.
func Status(raw string) (status model.Status, invalid bool) {
	if s, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, false
	}
	return model.StatusUnknown, true
}

// Category maps raw onto DEBIT/CREDIT. Unmatched values become DEBIT with
// invalid set.
func Category(raw string) (category model.Category, invalid bool) {
	if c, ok := categoryTable[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return c, false
	}
	return model.CategoryDebit, true
}

// MerchantID keeps letters and digits only.
func MerchantID(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}

// Network parses the acquirer network number, defaulting to DefaultNetwork.
func Network(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultNetwork
	}
	return n
}
