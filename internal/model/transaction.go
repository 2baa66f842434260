package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the only currency a report carries.
const Currency = "BRL"

// Status is the lifecycle label of a card transaction.
type Status string

const (
	StatusApproved   Status = "approved"
	StatusChargeback Status = "chargeback"
	StatusReversed   Status = "reversed"
	StatusRefunded   Status = "refunded"
	StatusPending    Status = "pending"
	StatusDeclined   Status = "declined"
	StatusUnknown    Status = "unknown"
)

// Statuses lists every Status in report order. StatusUnknown is last.
var Statuses = []Status{
	StatusApproved,
	StatusChargeback,
	StatusReversed,
	StatusRefunded,
	StatusPending,
	StatusDeclined,
	StatusUnknown,
}

// Category is the direction of a transaction.
type Category string

const (
	CategoryDebit  Category = "DEBIT"
	CategoryCredit Category = "CREDIT"
)

// Categories lists every Category in report order.
var Categories = []Category{CategoryDebit, CategoryCredit}

// RawRow is one CSV record keyed by header name. Values are as read.
type RawRow struct {
	Line   int // 1-based line in the source file, header is line 1
	Fields map[string]string
}

// Lookup returns the first non-blank value among keys, trimmed.
// The boolean is false when none of the columns carries a value.
func (r RawRow) Lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := r.Fields[k]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// Transaction is a normalized record eligible for reporting.
type Transaction struct {
	ID         string
	Date       string // YYYY-MM-DD
	Amount     decimal.Decimal
	Currency   string
	Status     Status
	Category   Category
	MerchantID string
	Network    int

	// Set when the source label did not match and a default was substituted.
	StatusDefaulted   bool
	CategoryDefaulted bool
}

// LabelsDefaulted reports whether any label of t was substituted.
func (t Transaction) LabelsDefaulted() bool {
	return t.StatusDefaulted || t.CategoryDefaulted
}
