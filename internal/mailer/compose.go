package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/txreport/txreport/internal/report"
)

// Attachment is a file carried by a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a composed report email.
type Message struct {
	From       string
	To         []string
	Subject    string
	Date       time.Time
	Body       string
	Attachment *Attachment
}

// Subject returns the report email subject for a month.
func Subject(month string) string {
	return "Transactional Report - " + month
}

// Body renders the analytics, summary and alerts sections for s.
func Body(s report.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analytics - %s\n\n", s.Month)

	cats := presentCategories(s)
	b.WriteString("Totals by Category (BRL):\n")
	if len(cats) == 0 {
		b.WriteString("- No transactions found.\n")
	}
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %s %s\n", c, s.TotalsByCategory[c], s.Currency)
	}

	b.WriteString("\nTotal Transactions by Category:\n")
	if len(cats) == 0 {
		b.WriteString("- No transactions found.\n")
	}
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %d\n", c, s.CountByCategory[c])
	}

	b.WriteString("\nTotal Transactions by Status:\n")
	fmt.Fprintf(&b, "- approved: %d\n", s.CountByStatus["approved"])
	fmt.Fprintf(&b, "- chargeback: %d\n", s.CountByStatus["chargeback"])

	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "Month: %s\n", s.Month)
	fmt.Fprintf(&b, "Rows in: %d\n", s.RowsIn)
	fmt.Fprintf(&b, "Rows out: %d\n", s.RowsOut)
	fmt.Fprintf(&b, "Duplicates removed: %d\n", s.DuplicatesRemoved)
	fmt.Fprintf(&b, "Below-threshold excluded: %d\n", s.BelowThresholdExcluded)
	fmt.Fprintf(&b, "Invalid labels: %d\n", s.InvalidLabels)
	fmt.Fprintf(&b, "Invalid dates: %d\n", s.InvalidDates)
	fmt.Fprintf(&b, "Missing ids: %d\n", s.MissingID)
	fmt.Fprintf(&b, "Other months excluded: %d\n", s.MonthMismatch)
	fmt.Fprintf(&b, "Transactions in XML: %d\n", s.TotalTransactions)

	b.WriteString("\nAlerts:\n")
	for _, a := range Alerts(s) {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}

// Alerts lists the data quality warnings for s.
func Alerts(s report.Summary) []string {
	var alerts []string
	if s.DuplicatesRemoved > 0 {
		alerts = append(alerts, "Duplicates were detected and removed.")
	}
	if s.InvalidLabels > 0 {
		alerts = append(alerts, "Some labels were invalid and normalized to defaults.")
	}
	if s.InvalidDates > 0 {
		alerts = append(alerts, "Some rows had invalid dates and were excluded.")
	}
	if s.BelowThresholdExcluded > 0 {
		alerts = append(alerts, "Some rows had non-positive amounts and were excluded.")
	}
	if s.MissingID > 0 {
		alerts = append(alerts, "Some rows had no transaction code and were excluded.")
	}
	if len(alerts) == 0 {
		alerts = append(alerts, "No alerts.")
	}
	return alerts
}

func presentCategories(s report.Summary) []string {
	var cats []string
	for c, n := range s.CountByCategory {
		if n > 0 {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats
}

// Bytes renders m as an RFC 5322 message with a multipart/mixed body.
func (m Message) Bytes() ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	tw, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("creating text part: %w", err)
	}
	qp := quotedprintable.NewWriter(tw)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("writing text part: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("writing text part: %w", err)
	}

	if a := m.Attachment; a != nil {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", mime.FormatMediaType(contentType, map[string]string{"name": a.Name}))
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
		h.Set("Content-Transfer-Encoding", "base64")
		aw, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating attachment part: %w", err)
		}
		if err := writeBase64Lines(aw, a.Data); err != nil {
			return nil, fmt.Errorf("writing attachment: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var msg bytes.Buffer
	writeHeader(&msg, "From", m.From)
	writeHeader(&msg, "To", strings.Join(m.To, ", "))
	writeHeader(&msg, "Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader(&msg, "Date", m.Date.Format(time.RFC1123Z))
	writeHeader(&msg, "MIME-Version", "1.0")
	writeHeader(&msg, "Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()}))
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// writeBase64Lines writes data base64 encoded in 76 character lines.
func writeBase64Lines(w io.Writer, data []byte) error {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := min(lineLen, len(encoded))
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:n]); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
