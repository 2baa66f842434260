package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txreport/txreport/internal/collect"
	"github.com/txreport/txreport/internal/metrics"
	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/month"
	"github.com/txreport/txreport/internal/normalize"
)

var generated = time.Date(2023, 9, 1, 12, 30, 0, 0, time.UTC)

func august(t *testing.T) month.Month {
	t.Helper()
	m, err := month.Parse("2023-08")
	require.NoError(t, err)
	return m
}

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		{
			ID:         "T1",
			Date:       "2023-08-05",
			Amount:     decimal.RequireFromString("150.5"),
			Currency:   model.Currency,
			Status:     model.StatusApproved,
			Category:   model.CategoryDebit,
			MerchantID: "M1",
			Network:    1,
		},
		{
			ID:                "T2",
			Date:              "2023-08-06",
			Amount:            decimal.RequireFromString("20"),
			Currency:          model.Currency,
			Status:            model.StatusUnknown,
			Category:          model.CategoryCredit,
			Network:           3,
			StatusDefaulted:   true,
			CategoryDefaulted: false,
		},
	}
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, august(t), sampleTxns(), generated))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<TransactionsReport month="2023-08" generated_at="2023-09-01T12:30:00Z">`)
	assert.Contains(t, out, `  <Transaction id="T1">`)
	assert.Contains(t, out, `<Amount currency="BRL">150.50</Amount>`)
	assert.Contains(t, out, `<Amount currency="BRL">20.00</Amount>`)
	assert.Contains(t, out, `<Type>CREDIT</Type>`)
	assert.Contains(t, out, `<Category>CREDIT</Category>`)
	assert.Contains(t, out, `<MerchantId>M1</MerchantId>`)
	assert.Contains(t, out, `<Network>3</Network>`)
	assert.NotContains(t, out, "Defaulted")

	// Order of transactions is preserved.
	assert.Less(t, strings.Index(out, `id="T1"`), strings.Index(out, `id="T2"`))

	var doc xmlReport
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Transactions, 2)
	assert.Equal(t, "unknown", doc.Transactions[1].Status)
}

func TestWriteXML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, august(t), nil, generated))

	var doc xmlReport
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2023-08", doc.Month)
	assert.Empty(t, doc.Transactions)
}

func TestWriteXML_EscapesText(t *testing.T) {
	txns := sampleTxns()[:1]
	txns[0].ID = `A&B<"1">`

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, august(t), txns, generated))

	var doc xmlReport
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, `A&B<"1">`, doc.Transactions[0].ID)
}

func TestNewSummary(t *testing.T) {
	txns := sampleTxns()
	c := collect.Collection{
		RowsIn:       6,
		Transactions: txns,
		Duplicates:   1,
		Rejected: map[normalize.Reason]int{
			normalize.UnparsableDate:    1,
			normalize.NonPositiveAmount: 2,
		},
	}
	s := NewSummary("run-1", august(t), c, metrics.Aggregate(txns), generated)

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "2023-08", s.Month)
	assert.Equal(t, "2023-09-01T12:30:00Z", s.GeneratedAt)
	assert.Equal(t, 6, s.RowsIn)
	assert.Equal(t, 2, s.RowsOut)
	assert.Equal(t, 3, s.RowsExcluded)
	assert.Equal(t, 1, s.DuplicatesRemoved)
	assert.Equal(t, 1, s.InvalidDates)
	assert.Equal(t, 2, s.BelowThresholdExcluded)
	assert.Equal(t, 0, s.MissingID)
	assert.Equal(t, 1, s.InvalidLabels)
	assert.Equal(t, "170.50", s.TotalAmount)
	assert.Equal(t, map[string]string{"DEBIT": "150.50", "CREDIT": "20.00"}, s.TotalsByCategory)
	assert.Equal(t, 1, s.CountByStatus["approved"])
	assert.Equal(t, 1, s.CountByStatus["unknown"])
	assert.Equal(t, 0, s.CountByStatus["chargeback"])
	assert.Equal(t, s.RowsIn, s.RowsOut+s.RowsExcluded+s.DuplicatesRemoved)
}

func TestWriteSummary(t *testing.T) {
	txns := sampleTxns()
	s := NewSummary("run-1", august(t), collect.Collect(nil), metrics.Aggregate(txns), generated)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	assert.Contains(t, buf.String(), `"rows_in": 0`)
	assert.Contains(t, buf.String(), `"total_amount": "170.50"`)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "BRL", got["currency"])
	assert.Contains(t, got, "count_by_status")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ReportFile)

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", ReportFile), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
