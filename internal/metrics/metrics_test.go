package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/txreport/txreport/internal/model"
)

func txn(id, amount string, cat model.Category, status model.Status) model.Transaction {
	return model.Transaction{
		ID:       id,
		Date:     "2023-08-05",
		Amount:   decimal.RequireFromString(amount),
		Currency: model.Currency,
		Category: cat,
		Status:   status,
	}
}

func sample() []model.Transaction {
	defaulted := txn("T4", "0.01", model.CategoryDebit, model.StatusUnknown)
	defaulted.StatusDefaulted = true
	defaulted.CategoryDefaulted = true

	catOnly := txn("T5", "5.00", model.CategoryDebit, model.StatusPending)
	catOnly.CategoryDefaulted = true

	return []model.Transaction{
		txn("T1", "150.50", model.CategoryDebit, model.StatusApproved),
		txn("T2", "20.25", model.CategoryCredit, model.StatusApproved),
		txn("T3", "9.99", model.CategoryCredit, model.StatusChargeback),
		defaulted,
		catOnly,
	}
}

func TestAggregate(t *testing.T) {
	m := Aggregate(sample())

	assert.Equal(t, "155.51", m.TotalsByCategory[model.CategoryDebit].StringFixed(2))
	assert.Equal(t, "30.24", m.TotalsByCategory[model.CategoryCredit].StringFixed(2))
	assert.Equal(t, 3, m.CountByCategory[model.CategoryDebit])
	assert.Equal(t, 2, m.CountByCategory[model.CategoryCredit])
	assert.Equal(t, 2, m.CountByStatus[model.StatusApproved])
	assert.Equal(t, 1, m.CountByStatus[model.StatusChargeback])
	assert.Equal(t, 1, m.CountByStatus[model.StatusUnknown])
	assert.Equal(t, 1, m.CountByStatus[model.StatusPending])
	assert.Equal(t, 0, m.CountByStatus[model.StatusDeclined])
	assert.Equal(t, 5, m.TotalTransactions)
}

func TestAggregate_InvalidLabelsCountedOncePerTransaction(t *testing.T) {
	m := Aggregate(sample())
	// T4 has both labels defaulted, T5 only the category.
	assert.Equal(t, 2, m.InvalidLabels)
}

func TestAggregate_SumMatchesAmounts(t *testing.T) {
	txns := sample()
	want := decimal.Zero
	for _, tx := range txns {
		want = want.Add(tx.Amount)
	}
	assert.True(t, want.Equal(Aggregate(txns).Sum()), "sum %s", want)
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(nil)
	assert.Zero(t, m.TotalTransactions)
	assert.True(t, m.Sum().IsZero())
	assert.Len(t, m.CountByStatus, len(model.Statuses))
	assert.Len(t, m.TotalsByCategory, len(model.Categories))
}

func TestMerge(t *testing.T) {
	txns := sample()
	whole := Aggregate(txns)

	for split := 0; split <= len(txns); split++ {
		merged := Merge(Aggregate(txns[:split]), Aggregate(txns[split:]))
		assert.Equal(t, whole.TotalTransactions, merged.TotalTransactions, "split %d", split)
		assert.Equal(t, whole.InvalidLabels, merged.InvalidLabels, "split %d", split)
		assert.Equal(t, whole.CountByStatus, merged.CountByStatus, "split %d", split)
		assert.Equal(t, whole.CountByCategory, merged.CountByCategory, "split %d", split)
		for _, c := range model.Categories {
			assert.True(t, whole.TotalsByCategory[c].Equal(merged.TotalsByCategory[c]), "split %d category %s", split, c)
		}
	}
}
