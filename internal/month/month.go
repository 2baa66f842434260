package month

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a report month is not "YYYY-MM".
var ErrInvalidFormat = errors.New("month must be 'YYYY-MM'")

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Month is a report month.
type Month struct {
	Year  int
	Month int
}

// Parse parses "2023-08" into a Month.
func Parse(s string) (Month, error) {
	if !monthPattern.MatchString(s) {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, ErrInvalidFormat)
	}

	// The pattern guarantees both parts are digits.
	year, _ := strconv.Atoi(s[:4])
	mon, _ := strconv.Atoi(s[5:])
	if mon < 1 || mon > 12 {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, ErrInvalidFormat)
	}
	return Month{Year: year, Month: mon}, nil
}

// String returns "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Folder returns the output folder name, "YYYYMM".
func (m Month) Folder() string {
	return fmt.Sprintf("%04d%02d", m.Year, m.Month)
}

// Contains reports whether an ISO date ("YYYY-MM-DD") falls in m.
func (m Month) Contains(isoDate string) bool {
	return strings.HasPrefix(isoDate, m.String()+"-")
}
