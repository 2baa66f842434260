package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/txreport/txreport/internal/model"
)

// RunMetrics aggregates the canonical transactions of a run.
type RunMetrics struct {
	TotalsByCategory  map[model.Category]decimal.Decimal
	CountByCategory   map[model.Category]int
	CountByStatus     map[model.Status]int
	InvalidLabels     int // transactions with a defaulted status or category, counted once each
	TotalTransactions int
}

// New returns empty metrics with every category and status present.
func New() RunMetrics {
	m := RunMetrics{
		TotalsByCategory: make(map[model.Category]decimal.Decimal, len(model.Categories)),
		CountByCategory:  make(map[model.Category]int, len(model.Categories)),
		CountByStatus:    make(map[model.Status]int, len(model.Statuses)),
	}
	for _, c := range model.Categories {
		m.TotalsByCategory[c] = decimal.Zero
		m.CountByCategory[c] = 0
	}
	for _, s := range model.Statuses {
		m.CountByStatus[s] = 0
	}
	return m
}

// Aggregate folds txns into RunMetrics.
func Aggregate(txns []model.Transaction) RunMetrics {
	m := New()
	for _, t := range txns {
		m.add(t)
	}
	return m
}

func (m *RunMetrics) add(t model.Transaction) {
	m.TotalsByCategory[t.Category] = m.TotalsByCategory[t.Category].Add(t.Amount)
	m.CountByCategory[t.Category]++
	m.CountByStatus[t.Status]++
	if t.LabelsDefaulted() {
		m.InvalidLabels++
	}
	m.TotalTransactions++
}

// Merge returns the combination of a and b. Aggregate(x ++ y) equals
// Merge(Aggregate(x), Aggregate(y)).
func Merge(a, b RunMetrics) RunMetrics {
	m := New()
	for _, part := range []RunMetrics{a, b} {
		for c, v := range part.TotalsByCategory {
			m.TotalsByCategory[c] = m.TotalsByCategory[c].Add(v)
		}
		for c, n := range part.CountByCategory {
			m.CountByCategory[c] += n
		}
		for s, n := range part.CountByStatus {
			m.CountByStatus[s] += n
		}
		m.InvalidLabels += part.InvalidLabels
		m.TotalTransactions += part.TotalTransactions
	}
	return m
}

// Sum returns the total amount across all categories.
func (m RunMetrics) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.TotalsByCategory {
		total = total.Add(v)
	}
	return total
}
