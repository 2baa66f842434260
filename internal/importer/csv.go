package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/txreport/txreport/internal/model"
)

// ErrUnknownEncoding is returned for an input encoding with no decoder.
var ErrUnknownEncoding = errors.New("unknown input encoding")

// CSVParser reads a header-first CSV into RawRows keyed by header name.
// Columns missing from a short row are absent from its Fields.
type CSVParser struct {
	Encoding string // "", "utf-8", "latin1" or "windows-1252"
	Comma    rune   // field delimiter, ',' when zero
}

// Format returns the parser name.
func (p *CSVParser) Format() string {
	if p.Comma == ';' {
		return FormatSemicolon
	}
	return FormatGeneric
}

// Parse reads every record after the header.
func (p *CSVParser) Parse(r io.Reader) ([]model.RawRow, error) {
	enc, err := lookupEncoding(p.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if p.Comma != 0 {
		cr.Comma = p.Comma
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, model.RawRow{Line: line, Fields: zipRecord(header, rec)})
	}
	return rows, nil
}

func zipRecord(header, rec []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if name == "" || i >= len(rec) {
			continue
		}
		if _, dup := fields[name]; dup {
			continue
		}
		fields[name] = strings.TrimSpace(rec[i])
	}
	return fields
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}
