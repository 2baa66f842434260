package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/txreport/txreport/internal/model"
)

// Input formats understood by NewParser.
const (
	FormatGeneric   = "generic"   // comma separated
	FormatSemicolon = "semicolon" // semicolon separated, as most BR bank exports are
)

// ErrUnknownFormat is returned for an input format with no parser.
var ErrUnknownFormat = errors.New("unknown input format")

// Parser converts a transactions file into RawRows.
type Parser interface {
	Parse(r io.Reader) ([]model.RawRow, error)
	Format() string
}

// Formats lists the names NewParser accepts.
func Formats() []string {
	return []string{FormatGeneric, FormatSemicolon}
}

// NewParser returns the parser for format decoding input in encoding.
// An empty format means FormatGeneric.
func NewParser(format, encoding string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatGeneric:
		return &CSVParser{Encoding: encoding}, nil
	case FormatSemicolon:
		return &CSVParser{Encoding: encoding, Comma: ';'}, nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
}

// ReadFile parses the file at path with p.
func ReadFile(p Parser, path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s %s: %w", p.Format(), path, err)
	}
	return rows, nil
}

// ReadInput parses path with p. When path is a directory every CSV inside
// it is read in name order and the rows are concatenated.
func ReadInput(p Parser, path string) ([]model.RawRow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if !info.IsDir() {
		return ReadFile(p, path)
	}

	paths, err := CSVFiles(path)
	if err != nil {
		return nil, err
	}
	var rows []model.RawRow
	for _, name := range paths {
		fileRows, err := ReadFile(p, name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

// CSVFiles returns the paths of the .csv files directly inside dir, sorted
// by file name. The extension match ignores case.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
