package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/month"
)

// ReportFile is the XML report name inside a month folder.
const ReportFile = "report.xml"

type xmlReport struct {
	XMLName      xml.Name         `xml:"TransactionsReport"`
	Month        string           `xml:"month,attr"`
	GeneratedAt  string           `xml:"generated_at,attr"`
	Transactions []xmlTransaction `xml:"Transaction"`
}

type xmlTransaction struct {
	ID         string    `xml:"id,attr"`
	Status     string    `xml:"Status"`
	Date       string    `xml:"Date"`
	Amount     xmlAmount `xml:"Amount"`
	Type       string    `xml:"Type"`
	MerchantID string    `xml:"MerchantId"`
	Network    int       `xml:"Network"`
	Category   string    `xml:"Category"`
}

type xmlAmount struct {
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

// WriteXML renders txns as an indented TransactionsReport document.
func WriteXML(w io.Writer, m month.Month, txns []model.Transaction, generatedAt time.Time) error {
	doc := xmlReport{
		Month:        m.String(),
		GeneratedAt:  generatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Transactions: make([]xmlTransaction, len(txns)),
	}
	for i, t := range txns {
		doc.Transactions[i] = xmlTransaction{
			ID:         t.ID,
			Status:     string(t.Status),
			Date:       t.Date,
			Amount:     xmlAmount{Currency: t.Currency, Value: t.Amount.StringFixed(2)},
			Type:       string(t.Category),
			MerchantID: t.MerchantID,
			Network:    t.Network,
			Category:   string(t.Category),
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
